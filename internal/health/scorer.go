package health

import "github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"

// Points awarded per zone.
const (
	PointsOptimal  = 100
	PointsWarning  = 50
	PointsCritical = 0
)

// MetricScore is the classification of one metric value.
type MetricScore struct {
	Status entities.Status
	Points int
}

// Score classifies value against r. Callers must not call Score for absent values.
// Values outside every band, including physically impossible ones, are critical.
func Score(value float64, r entities.ThresholdRange) MetricScore {
	switch {
	case r.Optimal.Contains(value):
		return MetricScore{Status: entities.StatusOptimal, Points: PointsOptimal}
	case r.WarningLow.Contains(value), r.WarningHigh.Contains(value):
		return MetricScore{Status: entities.StatusWarning, Points: PointsWarning}
	default:
		return MetricScore{Status: entities.StatusCritical, Points: PointsCritical}
	}
}
