package discovery

import (
	"sort"
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/internal/health"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// BuildResult scores complete snapshots and groups them into rooms. Incomplete
// snapshots must be filtered out by the caller. Plants and rooms come out
// sorted by id so consecutive passes compare cleanly.
func BuildResult(passID string, snaps []entities.Snapshot, catalog *health.Catalog, now time.Time) *messages.DiscoveryResult {
	plants := make([]entities.Plant, 0, len(snaps))
	for _, s := range snaps {
		h := health.ComputeHealth(s.Readings, catalog.Lookup(s.PlantID))
		plants = append(plants, entities.Plant{
			ID:           s.PlantID,
			Name:         s.PlantID,
			RoomID:       s.RoomID,
			Readings:     s.Readings.Clone(),
			Health:       h.Health,
			Status:       h.Status,
			MetricStatus: h.MetricStatus,
		})
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].ID < plants[j].ID })

	members := make(map[string][]entities.Plant)
	for _, p := range plants {
		members[p.RoomID] = append(members[p.RoomID], p)
	}
	roomIDs := make([]string, 0, len(members))
	for id := range members {
		roomIDs = append(roomIDs, id)
	}
	sort.Strings(roomIDs)

	rooms := make([]entities.Room, 0, len(roomIDs))
	for _, id := range roomIDs {
		in := members[id]
		rh := health.ComputeRoomHealth(in)
		ids := make([]string, len(in))
		for i, p := range in {
			ids[i] = p.ID
		}
		rooms = append(rooms, entities.Room{
			ID:            id,
			Name:          health.FriendlyRoomName(id),
			PlantIDs:      ids,
			AverageHealth: rh.AverageHealth,
			Status:        rh.Status,
			Averages:      health.MetricAverages(in),
		})
	}

	return &messages.DiscoveryResult{
		PassID: passID,
		Plants: plants,
		Rooms:  rooms,
		Summary: messages.DiscoverySummary{
			TotalPlants: len(plants),
			TotalRooms:  len(rooms),
			LastUpdate:  now,
			Averages:    health.MetricAverages(plants),
		},
	}
}
