package health

import (
	"fmt"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

// DefaultThresholds returns the built-in ranges for the four known metrics.
func DefaultThresholds() entities.Thresholds {
	return entities.Thresholds{
		entities.MetricTemperature: {
			Optimal:     entities.Band{Lo: 18, Hi: 25},
			WarningLow:  entities.Band{Lo: 15, Hi: 18},
			WarningHigh: entities.Band{Lo: 25, Hi: 28},
		},
		entities.MetricHumidity: {
			Optimal:     entities.Band{Lo: 40, Hi: 60},
			WarningLow:  entities.Band{Lo: 30, Hi: 40},
			WarningHigh: entities.Band{Lo: 60, Hi: 70},
		},
		entities.MetricMoisture: {
			Optimal:     entities.Band{Lo: 40, Hi: 60},
			WarningLow:  entities.Band{Lo: 30, Hi: 40},
			WarningHigh: entities.Band{Lo: 60, Hi: 70},
		},
		entities.MetricLight: {
			Optimal:     entities.Band{Lo: 500, Hi: 1000},
			WarningLow:  entities.Band{Lo: 300, Hi: 500},
			WarningHigh: entities.Band{Lo: 1000, Hi: 1200},
		},
	}
}

// CatalogConfig is the raw material for a Catalog.
type CatalogConfig struct {
	// Defaults apply to every plant. Missing known metrics fall back to DefaultThresholds.
	Defaults entities.Thresholds
	// Varieties holds per-variety overrides, selected through Assignments.
	Varieties map[string]entities.Thresholds
	// Plants holds per-plant overrides.
	Plants map[string]entities.Thresholds
	// Assignments maps a plant id to a variety name.
	Assignments map[string]string
}

// Catalog resolves the thresholds for a plant. It is immutable once built and
// safe for concurrent readers.
type Catalog struct {
	defaults    entities.Thresholds
	varieties   map[string]entities.Thresholds
	plants      map[string]entities.Thresholds
	assignments map[string]string
}

// NewCatalog validates cfg and returns a Catalog holding private copies of it.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	c := &Catalog{
		defaults:    DefaultThresholds(),
		varieties:   make(map[string]entities.Thresholds, len(cfg.Varieties)),
		plants:      make(map[string]entities.Thresholds, len(cfg.Plants)),
		assignments: make(map[string]string, len(cfg.Assignments)),
	}

	if err := validateSet("defaults", cfg.Defaults); err != nil {
		return nil, err
	}
	for m, r := range cfg.Defaults {
		c.defaults[m] = r
	}

	for name, set := range cfg.Varieties {
		if err := validateSet("variety "+name, set); err != nil {
			return nil, err
		}
		c.varieties[name] = set.Clone()
	}
	for id, set := range cfg.Plants {
		if err := validateSet("plant "+id, set); err != nil {
			return nil, err
		}
		c.plants[id] = set.Clone()
	}
	for id, variety := range cfg.Assignments {
		if _, ok := c.varieties[variety]; !ok {
			return nil, fmt.Errorf("assignment %s: unknown variety %q", id, variety)
		}
		c.assignments[id] = variety
	}
	return c, nil
}

// MustDefaultCatalog returns a catalog holding only the built-in defaults.
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(CatalogConfig{})
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the thresholds for plantID restricted to metrics (all known metrics
// when none are given). A plant override wins over its variety, which wins over the
// defaults, metric by metric. Metrics without any range are left out of the result.
func (c *Catalog) Lookup(plantID string, metrics ...entities.Metric) entities.Thresholds {
	if len(metrics) == 0 {
		metrics = entities.KnownMetrics
	}
	plant := c.plants[plantID]
	variety := c.varieties[c.assignments[plantID]]

	out := make(entities.Thresholds, len(metrics))
	for _, m := range metrics {
		if r, ok := plant[m]; ok {
			out[m] = r
		} else if r, ok := variety[m]; ok {
			out[m] = r
		} else if r, ok := c.defaults[m]; ok {
			out[m] = r
		}
	}
	return out
}

// Variety returns the variety assigned to plantID, if any.
func (c *Catalog) Variety(plantID string) (string, bool) {
	v, ok := c.assignments[plantID]
	return v, ok
}

func validateSet(scope string, set entities.Thresholds) error {
	for m, r := range set {
		if !m.IsKnown() {
			return fmt.Errorf("%s: unknown metric %q", scope, m)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s %s: %w", scope, m, err)
		}
	}
	return nil
}
