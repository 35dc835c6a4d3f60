package entities

// Plant is the scored snapshot of one plant for a single discovery pass.
// A Plant is replaced wholesale on every pass, never patched field by field.
type Plant struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	RoomID       string            `json:"room_id"`
	Readings     Readings          `json:"readings"`
	Health       int               `json:"health"`
	Status       Status            `json:"status"`
	MetricStatus map[Metric]Status `json:"metric_status"`
}

// Room is derived from its member plants on every pass.
type Room struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	PlantIDs      []string `json:"plant_ids"`
	AverageHealth int      `json:"average_health"`
	Status        Status   `json:"status"`
	// Averages holds the mean of each metric reported by the room's plants.
	Averages map[Metric]float64 `json:"averages"`
}

// Snapshot is what a data source knows about one plant: its latest readings
// and its room assignment (empty when unassigned).
type Snapshot struct {
	PlantID  string
	Readings Readings
	RoomID   string
}

// Complete reports whether the snapshot carries both readings and a room.
func (s Snapshot) Complete() bool {
	return len(s.Readings) > 0 && s.RoomID != ""
}
