package sensor_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// ====== Tunables ======
const (
	// moisture lost per hour without watering, in percentage points
	moistureDecayPerHour = 1.5

	// daily light cycle: peak lux at noon, zero at night
	peakLux = 1100.0
)

// drift bounds each random walk.
type drift struct {
	min, max, step float64
}

var (
	temperatureDrift = drift{min: 10, max: 35, step: 0.4}
	humidityDrift    = drift{min: 20, max: 85, step: 1.2}
)

// Device describes one simulated plant sensor box.
type Device struct {
	ID     string
	RoomID string
	// LegacyLight makes the device report "Light"/"Dark" instead of lux.
	LegacyLight bool
}

// DataGenerator keeps the simulated environment of one device and advances it over time.
type DataGenerator struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	now         func() time.Time
	loc         *time.Location
	last        time.Time
	temperature float64
	humidity    float64
	moisture    float64
	battery     float64
}

// NewDataGenerator starts from comfortable indoor values.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rnd:         rand.New(rand.NewSource(seed)),
		now:         time.Now,
		loc:         time.Local,
		temperature: 21,
		humidity:    50,
		moisture:    55,
		battery:     100,
	}
}

// Next advances the state and returns the payload for d.
func (g *DataGenerator) Next(d Device) messages.SensorData {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	if g.last.IsZero() {
		g.last = now
	}
	dtHours := math.Max(0, now.Sub(g.last).Hours())
	g.last = now

	g.temperature = g.walk(g.temperature, temperatureDrift)
	g.humidity = g.walk(g.humidity, humidityDrift)
	g.moisture = clamp(g.moisture-moistureDecayPerHour*dtHours, 0, 100)
	g.battery = clamp(g.battery-0.05*dtHours, 0, 100)

	temp := messages.FlexFloat(round1(g.temperature))
	hum := messages.FlexFloat(round1(g.humidity))
	moist := messages.FlexFloat(round1(g.moisture))

	light := &messages.LightReading{}
	lux := daylightLux(now.In(g.loc)) * (0.9 + 0.2*g.rnd.Float64())
	if d.LegacyLight {
		light.LightStatus = "Dark"
		if lux > 300 {
			light.LightStatus = "Light"
		}
	} else {
		l := messages.FlexFloat(math.Round(lux))
		light.Lux = &l
	}

	return messages.SensorData{
		DeviceID:  d.ID,
		RoomID:    d.RoomID,
		Timestamp: now.Format(time.RFC3339),
		Readings: messages.SensorReadings{
			Climate: &messages.ClimateReading{Temperature: &temp, Humidity: &hum},
			Light:   light,
			Soil:    &messages.SoilReading{MoisturePercentage: &moist},
		},
		Stats: &messages.DeviceStats{SensorCount: 3, ActiveSensors: 3, Battery: int(g.battery)},
	}
}

// Water raises soil moisture by pct percentage points.
func (g *DataGenerator) Water(pct float64) {
	if g == nil || pct <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moisture = clamp(g.moisture+pct, 0, 100)
}

// ===== Helpers =====

func (g *DataGenerator) walk(v float64, d drift) float64 {
	return clamp(v+(g.rnd.Float64()*2-1)*d.step, d.min, d.max)
}

// daylightLux follows a half-sine between 06:00 and 20:00 on the wall clock of t.
func daylightLux(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	if h < 6 || h > 20 {
		return 0
	}
	return peakLux * math.Sin(math.Pi*(h-6)/14)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
