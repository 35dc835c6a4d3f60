package health

import (
	"math"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

// Health bands shared by plants and rooms.
const (
	ThresholdOptimal = 80
	ThresholdWarning = 40
)

// PlantHealth is the composite result for one plant.
type PlantHealth struct {
	Health       int
	Status       entities.Status
	MetricStatus map[entities.Metric]entities.Status
	// Scored is the number of metrics that had both a value and a threshold.
	Scored int
}

// ComputeHealth scores every present reading that has a threshold and averages the points.
// With nothing scorable the result is {0, unknown}.
func ComputeHealth(readings entities.Readings, th entities.Thresholds) PlantHealth {
	out := PlantHealth{MetricStatus: make(map[entities.Metric]entities.Status, len(entities.KnownMetrics))}
	for _, m := range entities.KnownMetrics {
		out.MetricStatus[m] = entities.StatusUnknown
	}

	total := 0
	for _, m := range readings.OrderedKeys() {
		r, ok := th[m]
		if !ok {
			out.MetricStatus[m] = entities.StatusUnknown
			continue
		}
		s := Score(readings[m], r)
		out.MetricStatus[m] = s.Status
		total += s.Points
		out.Scored++
	}

	if out.Scored == 0 {
		out.Health = 0
		out.Status = entities.StatusUnknown
		return out
	}

	out.Health = roundHalfUp(float64(total) / float64(out.Scored))
	out.Status = StatusFromHealth(out.Health)
	return out
}

// StatusFromHealth maps a scored health value to its band.
func StatusFromHealth(health int) entities.Status {
	switch {
	case health >= ThresholdOptimal:
		return entities.StatusOptimal
	case health >= ThresholdWarning:
		return entities.StatusWarning
	default:
		return entities.StatusCritical
	}
}

// roundHalfUp rounds non-negative x to the nearest int, halves going up.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
