package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

// TopicPrefix is the topic namespace devices publish on: SensorData/{device_id}.
const TopicPrefix = "SensorData/"

// UnknownRoom is recorded for payloads that carry no room.
const UnknownRoom = "unknown_room"

var (
	ErrNoFields = errors.New("no metric fields in payload")
	ErrNoDevice = errors.New("no device id in payload or topic")
)

// Reading is one decoded device message.
type Reading struct {
	PlantID string
	RoomID  string
	Fields  map[string]interface{}
	Time    time.Time
}

// Decode parses a device payload. The device id falls back to the topic suffix,
// the room to UnknownRoom and the time to now.
func Decode(topic string, payload []byte, now time.Time) (Reading, error) {
	var d model.SensorData
	if err := json.Unmarshal(payload, &d); err != nil {
		return Reading{}, fmt.Errorf("decode sensor data: %w", err)
	}

	plantID := strings.TrimSpace(d.DeviceID)
	if plantID == "" {
		plantID = strings.TrimSpace(strings.TrimPrefix(topic, TopicPrefix))
		if strings.Contains(plantID, "/") || plantID == topic {
			plantID = ""
		}
	}
	if plantID == "" {
		return Reading{}, ErrNoDevice
	}

	room := strings.TrimSpace(d.RoomID)
	if room == "" {
		room = UnknownRoom
	}

	ts, ok := d.Time()
	if !ok {
		ts = now
	}

	fields := make(map[string]interface{}, 4)
	if c := d.Readings.Climate; c != nil {
		if c.Temperature != nil {
			fields[string(entities.MetricTemperature)] = c.Temperature.Value()
		}
		if c.Humidity != nil {
			fields[string(entities.MetricHumidity)] = c.Humidity.Value()
		}
	}
	if s := d.Readings.Soil; s != nil && s.MoisturePercentage != nil {
		fields[string(entities.MetricMoisture)] = s.MoisturePercentage.Value()
	}
	if l := d.Readings.Light; l != nil {
		switch {
		case l.Lux != nil:
			fields[string(entities.MetricLight)] = l.Lux.Value()
		case l.LightStatus != "":
			// legacy binary sensors only say "Light" or "Dark"
			v := 0.0
			if strings.EqualFold(strings.TrimSpace(l.LightStatus), "Light") {
				v = 1.0
			}
			fields[string(entities.MetricLight)] = v
		}
	}
	if len(fields) == 0 {
		return Reading{}, ErrNoFields
	}
	if d.Stats != nil {
		fields["battery"] = int64(d.Stats.Battery)
		fields["active_sensors"] = int64(d.Stats.ActiveSensors)
	}

	return Reading{PlantID: plantID, RoomID: room, Fields: fields, Time: ts}, nil
}

// ToPoint converts r into a point of measurement tagged with the plant and room.
func ToPoint(measurement string, r Reading) *write.Point {
	tags := map[string]string{
		"Plant_ID": r.PlantID,
		"room_ID":  r.RoomID,
	}
	return influxdb2.NewPoint(sanitizeMeasurement(measurement), tags, r.Fields, r.Time)
}

func sanitizeMeasurement(s string) string {
	if s == "" {
		return "sensorData"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == ':', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
