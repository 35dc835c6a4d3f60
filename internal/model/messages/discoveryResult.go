package messages

import (
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

// DiscoveryResult is the unit produced by one discovery pass and diffed by the change cache.
type DiscoveryResult struct {
	PassID  string           `json:"pass_id"`
	Plants  []entities.Plant `json:"plants"`
	Rooms   []entities.Room  `json:"rooms"`
	Summary DiscoverySummary `json:"summary"`
}

type DiscoverySummary struct {
	TotalPlants int                         `json:"total_plants"`
	TotalRooms  int                         `json:"total_rooms"`
	LastUpdate  time.Time                   `json:"last_update"`
	Averages    map[entities.Metric]float64 `json:"averages,omitempty"`
}

// Plant returns the plant with the given id.
func (r DiscoveryResult) Plant(id string) (entities.Plant, bool) {
	for _, p := range r.Plants {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Plant{}, false
}

// Room returns the room with the given id.
func (r DiscoveryResult) Room(id string) (entities.Room, bool) {
	for _, rm := range r.Rooms {
		if rm.ID == id {
			return rm, true
		}
	}
	return entities.Room{}, false
}

// PlantsByRoom returns the plants assigned to roomID in result order.
func (r DiscoveryResult) PlantsByRoom(roomID string) []entities.Plant {
	out := make([]entities.Plant, 0)
	for _, p := range r.Plants {
		if p.RoomID == roomID {
			out = append(out, p)
		}
	}
	return out
}
