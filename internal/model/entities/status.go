package entities

// Status is the categorical health label of a metric, plant or room.
type Status string

const (
	StatusOptimal  Status = "optimal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	// StatusUnknown means nothing could be scored. It is not a poor score.
	StatusUnknown Status = "unknown"
)
