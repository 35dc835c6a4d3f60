package entities

import (
	"errors"
	"fmt"
)

// ErrInvalidThreshold is returned when a ThresholdRange violates its band layout.
var ErrInvalidThreshold = errors.New("invalid threshold range")

// Band is a closed interval [Lo, Hi].
type Band struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Contains reports whether lo <= v <= hi.
func (b Band) Contains(v float64) bool { return v >= b.Lo && v <= b.Hi }

// ThresholdRange holds the optimal band and the two warning bands of one metric.
// Anything outside all three bands is critical.
type ThresholdRange struct {
	Optimal     Band `json:"optimal"`
	WarningLow  Band `json:"warning_low"`
	WarningHigh Band `json:"warning_high"`
}

// Validate checks that the warning bands sit below and above the optimal band.
func (r ThresholdRange) Validate() error {
	bands := []struct {
		name string
		b    Band
	}{{"optimal", r.Optimal}, {"warning_low", r.WarningLow}, {"warning_high", r.WarningHigh}}
	for _, nb := range bands {
		if nb.b.Lo > nb.b.Hi {
			return fmt.Errorf("%w: %s lo %.2f > hi %.2f", ErrInvalidThreshold, nb.name, nb.b.Lo, nb.b.Hi)
		}
	}
	if r.WarningLow.Lo > r.Optimal.Lo || r.WarningLow.Hi > r.Optimal.Lo {
		return fmt.Errorf("%w: lower warning band must end at or below optimal lo %.2f", ErrInvalidThreshold, r.Optimal.Lo)
	}
	if r.WarningHigh.Hi < r.Optimal.Hi || r.WarningHigh.Lo < r.Optimal.Hi {
		return fmt.Errorf("%w: upper warning band must start at or above optimal hi %.2f", ErrInvalidThreshold, r.Optimal.Hi)
	}
	return nil
}

// Thresholds maps each metric to its range set.
type Thresholds map[Metric]ThresholdRange

// Clone returns an independent copy of t.
func (t Thresholds) Clone() Thresholds {
	out := make(Thresholds, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
