package discovery

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
)

type countingRefresher struct {
	calls  atomic.Int32
	forced atomic.Int32
}

func (c *countingRefresher) Refresh(_ context.Context, force bool) (*messages.DiscoveryResult, error) {
	c.calls.Add(1)
	if force {
		c.forced.Add(1)
	}
	return &messages.DiscoveryResult{}, nil
}

func TestScheduler_RunsOnStartAndEveryTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	ticker := NewMockTicker(ctrl)

	ticks := make(chan time.Time)
	ticker.EXPECT().Chan().Return((<-chan time.Time)(ticks)).AnyTimes()
	ticker.EXPECT().Stop().Times(1)

	ref := &countingRefresher{}
	s := NewScheduler(ref, time.Hour, logger.NewTestLogger())
	s.newTicker = func(d time.Duration) Ticker {
		assert.Equal(t, time.Hour, d)
		return ticker
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ticks <- time.Now()
	ticks <- time.Now()

	assert.Eventually(t, func() bool { return ref.calls.Load() == 3 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(0), ref.forced.Load())
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, 0, logger.NewTestLogger())
	assert.Equal(t, time.Minute, s.interval)
}
