package entities

import "sort"

// Metric is one measured quantity reported by a plant device.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricMoisture    Metric = "moisture"
	MetricLight       Metric = "light"
)

// KnownMetrics is the fixed order used for scoring output and change comparison.
var KnownMetrics = []Metric{MetricTemperature, MetricHumidity, MetricMoisture, MetricLight}

// IsKnown reports whether m is one of the four scored metrics.
func (m Metric) IsKnown() bool {
	for _, k := range KnownMetrics {
		if k == m {
			return true
		}
	}
	return false
}

// Readings maps a metric to its latest value. A missing key means the value is absent;
// absent values are never scored as zero.
type Readings map[Metric]float64

// Get returns the value for m and whether it is present.
func (r Readings) Get(m Metric) (float64, bool) {
	v, ok := r[m]
	return v, ok
}

// Clone returns an independent copy of r.
func (r Readings) Clone() Readings {
	if r == nil {
		return nil
	}
	out := make(Readings, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// OrderedKeys returns the known metrics present in r first (in KnownMetrics order),
// then any other metrics sorted by name.
func (r Readings) OrderedKeys() []Metric {
	out := make([]Metric, 0, len(r))
	for _, m := range KnownMetrics {
		if _, ok := r[m]; ok {
			out = append(out, m)
		}
	}
	var extra []Metric
	for m := range r {
		if !m.IsKnown() {
			extra = append(extra, m)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
