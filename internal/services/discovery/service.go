package discovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/plant_monitor/internal/health"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// Drop reasons for incomplete plants.
const (
	dropNoData     = "no_data"
	dropNoReadings = "no_readings"
	dropNoRoom     = "no_room"
)

type Config struct {
	// MaxAge is how long Discover serves the cached result before running a pass.
	MaxAge time.Duration
	// FetchConcurrency bounds the parallel snapshot fetches of one pass.
	FetchConcurrency int
	// FetchTimeout bounds a single snapshot fetch.
	FetchTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAge <= 0 {
		c.MaxAge = 5 * time.Minute
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 8
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 5 * time.Second
	}
	return c
}

// Status describes the outcome of the latest passes.
type Status struct {
	LastPassID  string    `json:"last_pass_id,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitempty"`
	Passes      uint64    `json:"passes"`
	Failures    uint64    `json:"failures"`
}

// Service runs discovery passes and serves their results.
type Service struct {
	source   DataSource
	notifier Notifier
	catalog  atomic.Pointer[health.Catalog]
	cache    *ChangeCache
	metrics  *Metrics
	log      zerolog.Logger
	cfg      Config

	now   func() time.Time
	newID func() string

	statusMu sync.RWMutex
	status   Status
}

// NewService wires a Service. A nil catalog means the built-in defaults; metrics may be nil.
func NewService(source DataSource, notifier Notifier, catalog *health.Catalog, cfg Config, metrics *Metrics, log zerolog.Logger) *Service {
	if catalog == nil {
		catalog = health.MustDefaultCatalog()
	}
	s := &Service{
		source:   source,
		notifier: notifier,
		cache:    NewChangeCache(),
		metrics:  metrics,
		log:      log,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	s.catalog.Store(catalog)
	return s
}

// SetCatalog swaps the threshold catalog used by later passes.
func (s *Service) SetCatalog(c *health.Catalog) {
	if c != nil {
		s.catalog.Store(c)
	}
}

// Discover returns the cached result when a pass compared against it within
// MaxAge, and runs an unforced pass otherwise.
func (s *Service) Discover(ctx context.Context) (*messages.DiscoveryResult, error) {
	if cur := s.cache.Current(); cur != nil && s.now().Sub(s.cache.CheckedAt()) < s.cfg.MaxAge {
		return cur, nil
	}
	return s.Refresh(ctx, false)
}

// Refresh runs one discovery pass. With force set the result is committed and
// announced even when nothing changed.
func (s *Service) Refresh(ctx context.Context, force bool) (*messages.DiscoveryResult, error) {
	passID := s.newID()
	seq := s.cache.Begin()
	start := s.now()
	log := s.log.With().Str("pass_id", passID).Bool("forced", force).Logger()

	ids, err := s.source.ListPlantIDs(ctx)
	if err != nil {
		dsErr := &DataSourceError{Err: err}
		log.Error().Err(err).Msg("plant listing failed, keeping last known result")
		s.recordFailure(passID, dsErr)
		s.metrics.Pass(outcomeFailed, s.now().Sub(start))
		return nil, dsErr
	}

	snaps := s.fetchAll(ctx, log, uniqueIDs(ids))
	if err := ctx.Err(); err != nil {
		s.recordFailure(passID, err)
		s.metrics.Pass(outcomeFailed, s.now().Sub(start))
		return nil, err
	}

	result := BuildResult(passID, snaps, s.catalog.Load(), s.now())
	out := s.cache.Apply(seq, result, force)

	switch {
	case out.Superseded:
		log.Info().Msg("a newer pass already committed, result discarded")
		s.metrics.Pass(outcomeSuperseded, s.now().Sub(start))
		if force {
			// a forced refresh still announces, with the newer committed result
			s.notify(ctx, log, out, force)
		}
		s.recordSuccess(passID)
		return out.Result, nil
	case out.Committed:
		s.metrics.Committed(result)
		outcome := outcomeChanged
		if !out.Changed {
			outcome = outcomeForced
		}
		s.metrics.Pass(outcome, s.now().Sub(start))
	default:
		s.metrics.Pass(outcomeUnchanged, s.now().Sub(start))
	}

	log.Info().
		Int("listed", len(ids)).
		Int("plants", result.Summary.TotalPlants).
		Int("rooms", result.Summary.TotalRooms).
		Bool("changed", out.Changed).
		Dur("took", s.now().Sub(start)).
		Msg("discovery pass complete")

	s.notify(ctx, log, out, force)
	s.recordSuccess(passID)
	return out.Result, nil
}

// fetchAll fetches every snapshot concurrently and returns the complete ones.
// Failures and timeouts drop the plant.
func (s *Service) fetchAll(ctx context.Context, log zerolog.Logger, ids []string) []entities.Snapshot {
	fetched := make([]*entities.Snapshot, len(ids))

	var g errgroup.Group
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			defer cancel()

			snap, err := s.source.LatestSnapshot(fctx, id)
			if err != nil {
				ferr := &PlantFetchError{PlantID: id, Err: err}
				reason := "error"
				if errors.Is(err, context.DeadlineExceeded) {
					reason = "timeout"
				}
				log.Warn().Err(ferr).Str("plant_id", id).Str("reason", reason).Msg("plant fetch failed, excluding plant")
				s.metrics.FetchError(reason)
				return nil
			}
			fetched[i] = snap
			return nil
		})
	}
	_ = g.Wait()

	out := make([]entities.Snapshot, 0, len(ids))
	for i, snap := range fetched {
		reason := ""
		switch {
		case snap == nil:
			reason = dropNoData
		case len(snap.Readings) == 0:
			reason = dropNoReadings
		case snap.RoomID == "":
			reason = dropNoRoom
		}
		if reason != "" {
			log.Debug().Str("plant_id", ids[i]).Str("reason", reason).Msg("incomplete plant data, dropped")
			s.metrics.Dropped(reason)
			continue
		}
		snap.PlantID = ids[i]
		out = append(out, *snap)
	}
	return out
}

func (s *Service) notify(ctx context.Context, log zerolog.Logger, out ApplyOutcome, force bool) {
	if s.notifier == nil || out.Result == nil {
		return
	}
	n := messages.DiscoveryNotification{
		Result:    *out.Result,
		Changed:   out.Changed,
		Forced:    force,
		Timestamp: s.now(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Warn().Err(err).Msg("discovery notification failed")
		s.metrics.NotifyError()
	}
}

func (s *Service) recordSuccess(passID string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastPassID = passID
	s.status.LastSuccess = s.now()
	s.status.Passes++
}

func (s *Service) recordFailure(passID string, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastPassID = passID
	s.status.LastError = err.Error()
	s.status.LastErrorAt = s.now()
	s.status.Passes++
	s.status.Failures++
}

// Status returns a copy of the pass bookkeeping.
func (s *Service) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Current returns the cached result, or nil before the first commit.
func (s *Service) Current() *messages.DiscoveryResult {
	return s.cache.Current()
}

// PlantsByRoom returns the cached plants of roomID; empty when the room is unknown.
func (s *Service) PlantsByRoom(roomID string) []entities.Plant {
	cur := s.cache.Current()
	if cur == nil {
		return []entities.Plant{}
	}
	return cur.PlantsByRoom(roomID)
}

// Room returns the cached room with the given id.
func (s *Service) Room(roomID string) (entities.Room, bool) {
	cur := s.cache.Current()
	if cur == nil {
		return entities.Room{}, false
	}
	return cur.Room(roomID)
}

// Plant returns the cached plant with the given id.
func (s *Service) Plant(plantID string) (entities.Plant, bool) {
	cur := s.cache.Current()
	if cur == nil {
		return entities.Plant{}, false
	}
	return cur.Plant(plantID)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
