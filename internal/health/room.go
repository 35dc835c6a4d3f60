package health

import (
	"strings"
	"unicode"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

// RoomHealth is the rollup of the plants in one room.
type RoomHealth struct {
	AverageHealth int
	Status        entities.Status
}

// ComputeRoomHealth averages plant health and derives the room status from the
// worst plant first: any critical plant makes the room critical, any warning
// plant makes it warning. Only then does the average decide between optimal and
// warning. Unknown plants count as health 0 in the average; a room whose plants
// are all unknown is unknown.
func ComputeRoomHealth(plants []entities.Plant) RoomHealth {
	if len(plants) == 0 {
		return RoomHealth{AverageHealth: 0, Status: entities.StatusUnknown}
	}

	sum := 0
	var anyCritical, anyWarning, anyScored bool
	for _, p := range plants {
		sum += p.Health
		switch p.Status {
		case entities.StatusCritical:
			anyCritical = true
		case entities.StatusWarning:
			anyWarning = true
		}
		if p.Status != entities.StatusUnknown {
			anyScored = true
		}
	}
	avg := roundHalfUp(float64(sum) / float64(len(plants)))

	switch {
	case !anyScored:
		return RoomHealth{AverageHealth: avg, Status: entities.StatusUnknown}
	case anyCritical:
		return RoomHealth{AverageHealth: avg, Status: entities.StatusCritical}
	case anyWarning:
		return RoomHealth{AverageHealth: avg, Status: entities.StatusWarning}
	case avg >= ThresholdOptimal:
		return RoomHealth{AverageHealth: avg, Status: entities.StatusOptimal}
	default:
		// no critical or warning plant, yet the average is below the optimal band
		return RoomHealth{AverageHealth: avg, Status: entities.StatusWarning}
	}
}

// FriendlyRoomName turns "living_room" into "Living Room".
func FriendlyRoomName(roomID string) string {
	if strings.TrimSpace(roomID) == "" {
		return "Unnamed Room"
	}
	words := strings.Fields(strings.ReplaceAll(roomID, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// MetricAverages returns the mean of each known metric over the plants reporting it.
func MetricAverages(plants []entities.Plant) map[entities.Metric]float64 {
	out := make(map[entities.Metric]float64)
	for _, m := range entities.KnownMetrics {
		var sum float64
		n := 0
		for _, p := range plants {
			if v, ok := p.Readings.Get(m); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			out[m] = sum / float64(n)
		}
	}
	return out
}
