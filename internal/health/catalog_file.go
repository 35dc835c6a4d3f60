package health

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

// catalogFile mirrors the YAML layout:
//
//	defaults:
//	  temperature: {optimal: [18, 25], warning: [15, 18, 25, 28]}
//	varieties:
//	  cactus:
//	    moisture: {optimal: [10, 25], warning: [5, 10, 25, 35]}
//	assignments:
//	  plant_07: cactus
//	plants:
//	  plant_01:
//	    light: {optimal: [200, 600], warning: [100, 200, 600, 900]}
type catalogFile struct {
	Defaults    map[string]rangeFile            `yaml:"defaults"`
	Varieties   map[string]map[string]rangeFile `yaml:"varieties"`
	Plants      map[string]map[string]rangeFile `yaml:"plants"`
	Assignments map[string]string               `yaml:"assignments"`
}

type rangeFile struct {
	Optimal []float64 `yaml:"optimal"`
	Warning []float64 `yaml:"warning"`
	// Critical is informational only; anything outside optimal and warning is critical.
	Critical []float64 `yaml:"critical"`
}

func (r rangeFile) toRange() (entities.ThresholdRange, error) {
	if len(r.Optimal) != 2 {
		return entities.ThresholdRange{}, fmt.Errorf("optimal needs 2 values, got %d", len(r.Optimal))
	}
	if len(r.Warning) != 4 {
		return entities.ThresholdRange{}, fmt.Errorf("warning needs 4 values, got %d", len(r.Warning))
	}
	return entities.ThresholdRange{
		Optimal:     entities.Band{Lo: r.Optimal[0], Hi: r.Optimal[1]},
		WarningLow:  entities.Band{Lo: r.Warning[0], Hi: r.Warning[1]},
		WarningHigh: entities.Band{Lo: r.Warning[2], Hi: r.Warning[3]},
	}, nil
}

func toThresholds(scope string, in map[string]rangeFile) (entities.Thresholds, error) {
	out := make(entities.Thresholds, len(in))
	for name, rf := range in {
		r, err := rf.toRange()
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", scope, name, err)
		}
		out[entities.Metric(name)] = r
	}
	return out, nil
}

// ParseCatalog builds a Catalog from YAML bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse yaml: %w", err)
	}

	cfg := CatalogConfig{
		Varieties:   make(map[string]entities.Thresholds, len(f.Varieties)),
		Plants:      make(map[string]entities.Thresholds, len(f.Plants)),
		Assignments: f.Assignments,
	}
	var err error
	if cfg.Defaults, err = toThresholds("defaults", f.Defaults); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	for name, set := range f.Varieties {
		if cfg.Varieties[name], err = toThresholds("variety "+name, set); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}
	for id, set := range f.Plants {
		if cfg.Plants[id], err = toThresholds("plant "+id, set); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	c, err := NewCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// LoadCatalog reads and parses the catalog file at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read file: %w", err)
	}
	return ParseCatalog(data)
}

// WatchCatalog reloads the catalog at path whenever it is written and hands the new
// value to onChange. A reload that fails is logged and the previous catalog stays
// in use. WatchCatalog blocks until ctx is cancelled.
func WatchCatalog(ctx context.Context, path string, log zerolog.Logger, onChange func(*Catalog)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("catalog: watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// editors often save through rename, so Create counts too
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			c, err := LoadCatalog(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("catalog: reload failed, keeping previous catalog")
				continue
			}
			log.Info().Str("path", path).Msg("catalog: reloaded")
			onChange(c)

			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("catalog: watcher error")
		}
	}
}
