package discovery

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// Pass outcomes used as the "outcome" label.
const (
	outcomeChanged    = "changed"
	outcomeForced     = "forced"
	outcomeUnchanged  = "unchanged"
	outcomeSuperseded = "superseded"
	outcomeFailed     = "failed"
)

// Metrics holds the Prometheus collectors of the discovery service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	fetchErrors  *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	notifyErrors prometheus.Counter
	plants       prometheus.Gauge
	rooms        prometheus.Gauge
	plantHealth  *prometheus.GaugeVec
	roomHealth   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plant_discovery_passes_total",
			Help: "Discovery passes by outcome.",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plant_discovery_pass_duration_seconds",
			Help:    "Wall time of one discovery pass.",
			Buckets: prometheus.DefBuckets,
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plant_discovery_fetch_errors_total",
			Help: "Per-plant snapshot fetches that failed, by reason.",
		}, []string{"reason"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plant_discovery_dropped_plants_total",
			Help: "Plants left out of a pass for incomplete data, by reason.",
		}, []string{"reason"}),
		notifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plant_discovery_notify_errors_total",
			Help: "Notifications that could not be delivered.",
		}),
		plants: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plant_discovery_plants",
			Help: "Plants in the current result.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plant_discovery_rooms",
			Help: "Rooms in the current result.",
		}),
		plantHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plant_health_score",
			Help: "Composite health 0-100 of each plant in the current result.",
		}, []string{"plant_id", "room_id"}),
		roomHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "room_health_score",
			Help: "Average health 0-100 of each room in the current result.",
		}, []string{"room_id"}),
	}

	reg.MustRegister(
		m.passes,
		m.passDuration,
		m.fetchErrors,
		m.dropped,
		m.notifyErrors,
		m.plants,
		m.rooms,
		m.plantHealth,
		m.roomHealth,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Pass(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(d.Seconds())
}

func (m *Metrics) FetchError(reason string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) NotifyError() {
	if m == nil {
		return
	}
	m.notifyErrors.Inc()
}

// Committed replaces the health gauges with the values of r.
func (m *Metrics) Committed(r *messages.DiscoveryResult) {
	if m == nil || r == nil {
		return
	}
	m.plants.Set(float64(r.Summary.TotalPlants))
	m.rooms.Set(float64(r.Summary.TotalRooms))

	m.plantHealth.Reset()
	for _, p := range r.Plants {
		m.plantHealth.WithLabelValues(p.ID, p.RoomID).Set(float64(p.Health))
	}
	m.roomHealth.Reset()
	for _, rm := range r.Rooms {
		m.roomHealth.WithLabelValues(rm.ID).Set(float64(rm.AverageHealth))
	}
}
