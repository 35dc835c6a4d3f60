package messages

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SensorData is the JSON payload a plant device publishes on SensorData/{device_id}.
type SensorData struct {
	DeviceID  string         `json:"device_id"`
	RoomID    string         `json:"room_id"`
	Timestamp string         `json:"timestamp"`
	Readings  SensorReadings `json:"readings"`
	Stats     *DeviceStats   `json:"stats,omitempty"`
}

type SensorReadings struct {
	Climate *ClimateReading `json:"climate,omitempty"`
	Light   *LightReading   `json:"light,omitempty"`
	Soil    *SoilReading    `json:"soil,omitempty"`
}

type ClimateReading struct {
	Temperature *FlexFloat `json:"temperature,omitempty"`
	Humidity    *FlexFloat `json:"humidity,omitempty"`
}

// LightReading carries either a lux value or the legacy "Light"/"Dark" status.
type LightReading struct {
	Lux         *FlexFloat `json:"lux,omitempty"`
	LightStatus string     `json:"light_status,omitempty"`
}

type SoilReading struct {
	MoisturePercentage *FlexFloat `json:"moisture_percentage,omitempty"`
}

type DeviceStats struct {
	SensorCount   int `json:"sensor_count"`
	ActiveSensors int `json:"active_sensors"`
	Battery       int `json:"battery"`
}

// Time parses Timestamp as RFC3339, returning ok=false when missing or malformed.
func (s SensorData) Time() (time.Time, bool) {
	if strings.TrimSpace(s.Timestamp) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FlexFloat accepts a JSON number or a numeric string. NaN and infinities are rejected.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*f = FlexFloat(x)
	case string:
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", "."), 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", x)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Errorf("not a finite number: %q", x)
		}
		*f = FlexFloat(n)
	default:
		return fmt.Errorf("unexpected value %v", v)
	}
	return nil
}

func (f *FlexFloat) Value() float64 { return float64(*f) }
