// Package influx reads plant snapshots from the InfluxDB bucket written by the
// ingest service.
package influx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
)

// ErrBreakerOpen is returned while the circuit breaker rejects queries.
var ErrBreakerOpen = errors.New("influx: circuit breaker open")

type Config struct {
	Org         string
	Bucket      string
	Measurement string
	PlantTag    string
	RoomTag     string
	// ListWindow is how far back plant ids are collected.
	ListWindow time.Duration
	// SnapshotWindow is how old the latest readings may be.
	SnapshotWindow time.Duration
	// Query timeout for a single Flux call.
	QueryTimeout time.Duration

	BreakerFails    int
	BreakerOpen     time.Duration
	BreakerInterval time.Duration

	// ListRetryElapsed bounds the retry loop around the plant listing.
	ListRetryElapsed time.Duration
}

func (c Config) withDefaults() Config {
	if c.Measurement == "" {
		c.Measurement = "sensorData"
	}
	if c.PlantTag == "" {
		c.PlantTag = "Plant_ID"
	}
	if c.RoomTag == "" {
		c.RoomTag = "room_ID"
	}
	if c.ListWindow <= 0 {
		c.ListWindow = 30 * 24 * time.Hour
	}
	if c.SnapshotWindow <= 0 {
		c.SnapshotWindow = time.Hour
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 5 * time.Second
	}
	if c.BreakerFails <= 0 {
		c.BreakerFails = 5
	}
	if c.BreakerOpen <= 0 {
		c.BreakerOpen = 30 * time.Second
	}
	if c.ListRetryElapsed <= 0 {
		c.ListRetryElapsed = 5 * time.Second
	}
	return c
}

// row is one Flux record reduced to the columns the source reads.
type row struct {
	Field string
	Value interface{}
	Plant string
	Room  string
	Time  time.Time
}

type queryFunc func(ctx context.Context, flux string) ([]row, error)

// Source implements discovery.DataSource on top of InfluxDB.
type Source struct {
	cfg     Config
	query   queryFunc
	listCB  *gobreaker.CircuitBreaker
	snapCB  *gobreaker.CircuitBreaker
	backoff func() backoff.BackOff
	log     zerolog.Logger
}

// New builds a Source reading through client.
func New(client influxdb2.Client, cfg Config, log zerolog.Logger) *Source {
	cfg = cfg.withDefaults()
	s := newSource(cfg, nil, log)
	s.query = clientQuery(client, cfg)
	return s
}

func newSource(cfg Config, q queryFunc, log zerolog.Logger) *Source {
	return &Source{
		cfg:    cfg,
		query:  q,
		listCB: mkCB("influx-list", cfg, log),
		snapCB: mkCB("influx-snapshot", cfg, log),
		backoff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 200 * time.Millisecond
			bo.MaxElapsedTime = cfg.ListRetryElapsed
			return bo
		},
		log: log,
	}
}

func mkCB(name string, cfg Config, log zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: cfg.BreakerInterval,
		Timeout:  cfg.BreakerOpen,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(cfg.BreakerFails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

func clientQuery(client influxdb2.Client, cfg Config) queryFunc {
	return func(ctx context.Context, flux string) ([]row, error) {
		res, err := client.QueryAPI(cfg.Org).Query(ctx, flux)
		if err != nil {
			return nil, err
		}
		defer res.Close()

		var out []row
		for res.Next() {
			rec := res.Record()
			out = append(out, row{
				Field: rec.Field(),
				Value: rec.Value(),
				Plant: stringValue(rec.ValueByKey(cfg.PlantTag)),
				Room:  stringValue(rec.ValueByKey(cfg.RoomTag)),
				Time:  rec.Time(),
			})
		}
		if res.Err() != nil {
			return nil, res.Err()
		}
		return out, nil
	}
}

// run executes flux through cb with the per-query timeout.
func (s *Source) run(ctx context.Context, cb *gobreaker.CircuitBreaker, flux string) ([]row, error) {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	res, err := cb.Execute(func() (interface{}, error) {
		return s.query(qctx, flux)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	if err != nil {
		return nil, err
	}
	rows, _ := res.([]row)
	return rows, nil
}

// ListPlantIDs returns the distinct plant ids of the measurement. Transient
// failures are retried with exponential backoff; an open breaker is not.
func (s *Source) ListPlantIDs(ctx context.Context) ([]string, error) {
	flux := buildListFlux(s.cfg)

	var rows []row
	op := func() error {
		var err error
		rows, err = s.run(ctx, s.listCB, flux)
		if errors.Is(err, ErrBreakerOpen) {
			return backoff.Permanent(err)
		}
		if err != nil {
			s.log.Debug().Err(err).Msg("plant listing failed, retrying")
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(s.backoff(), ctx)); err != nil {
		return nil, fmt.Errorf("influx: list plant ids: %w", err)
	}

	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		id := strings.TrimSpace(stringValue(r.Value))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// LatestSnapshot returns the newest value of each known metric of plantID and
// the room of its newest record. It returns nil, nil when nothing is recorded
// within the snapshot window.
func (s *Source) LatestSnapshot(ctx context.Context, plantID string) (*entities.Snapshot, error) {
	rows, err := s.run(ctx, s.snapCB, buildSnapshotFlux(s.cfg, plantID))
	if err != nil {
		return nil, fmt.Errorf("influx: snapshot %s: %w", plantID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	snap := &entities.Snapshot{PlantID: plantID, Readings: entities.Readings{}}
	seenAt := make(map[entities.Metric]time.Time)
	var roomAt time.Time
	for _, r := range rows {
		if r.Room != "" && !r.Time.Before(roomAt) {
			snap.RoomID = r.Room
			roomAt = r.Time
		}

		m := entities.Metric(r.Field)
		if !m.IsKnown() {
			continue
		}
		v, ok := toFloat(r.Value)
		if !ok {
			continue
		}
		if prev, ok := seenAt[m]; ok && r.Time.Before(prev) {
			continue
		}
		snap.Readings[m] = v
		seenAt[m] = r.Time
	}
	return snap, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
