package discovery

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// Refresher is the part of Service the Scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (*messages.DiscoveryResult, error)
}

// Scheduler runs an unforced Refresh on every tick until its context ends.
type Scheduler struct {
	svc       Refresher
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	log       zerolog.Logger
}

func NewScheduler(svc Refresher, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		svc:       svc,
		interval:  interval,
		newTicker: func(d time.Duration) Ticker { return &realTicker{t: time.NewTicker(d)} },
		log:       log,
	}
}

// Run performs one pass immediately, then one per interval. It blocks until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("discovery scheduler started")
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("discovery scheduler stopped")
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.svc.Refresh(ctx, false); err != nil && ctx.Err() == nil {
		s.log.Warn().Err(err).Msg("scheduled discovery pass failed")
	}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) Chan() <-chan time.Time {
	return r.t.C
}

func (r *realTicker) Stop() {
	r.t.Stop()
}
