package influx

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/pkg/logger"
)

func testSource(q queryFunc) *Source {
	cfg := Config{Org: "org", Bucket: "plants", BreakerFails: 2, BreakerOpen: time.Minute}.withDefaults()
	s := newSource(cfg, q, logger.NewTestLogger())
	s.backoff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2)
	}
	return s
}

func TestBuildFlux(t *testing.T) {
	cfg := Config{Bucket: "plants"}.withDefaults()

	list := buildListFlux(cfg)
	assert.Contains(t, list, `from(bucket: "plants")`)
	assert.Contains(t, list, "range(start: -2592000s)")
	assert.Contains(t, list, `r._measurement == "sensorData"`)
	assert.Contains(t, list, `distinct(column: "Plant_ID")`)

	snap := buildSnapshotFlux(cfg, `p"1`)
	assert.Contains(t, snap, "range(start: -3600s)")
	assert.Contains(t, snap, `r["Plant_ID"] == "p\"1"`)
	assert.Contains(t, snap, "last()")
}

func TestListPlantIDs(t *testing.T) {
	s := testSource(func(_ context.Context, flux string) ([]row, error) {
		return []row{{Value: "p2"}, {Value: "p1"}, {Value: "p2"}, {Value: ""}, {Value: 42}}, nil
	})

	ids, err := s.ListPlantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids)
}

func TestListPlantIDs_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	s := testSource(func(context.Context, string) ([]row, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})
	s.listCB = mkCB("test", Config{BreakerFails: 100}, logger.NewTestLogger())

	_, err := s.ListPlantIDs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int32(3), calls.Load())
}

func TestListPlantIDs_RecoversAfterRetry(t *testing.T) {
	var calls atomic.Int32
	s := testSource(func(context.Context, string) ([]row, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("timeout")
		}
		return []row{{Value: "p1"}}, nil
	})

	ids, err := s.ListPlantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestLatestSnapshot(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := testSource(func(_ context.Context, flux string) ([]row, error) {
		return []row{
			{Field: "temperature", Value: 21.5, Room: "kitchen", Time: t0},
			{Field: "humidity", Value: int64(55), Room: "kitchen", Time: t0},
			{Field: "moisture", Value: "41.5", Room: "kitchen", Time: t0},
			{Field: "battery", Value: 3.3, Room: "kitchen", Time: t0},
			// plant moved: newer series in another room
			{Field: "temperature", Value: 23.0, Room: "office", Time: t0.Add(time.Minute)},
			{Field: "light", Value: "n/a", Room: "office", Time: t0.Add(time.Minute)},
		}, nil
	})

	snap, err := s.LatestSnapshot(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "p1", snap.PlantID)
	assert.Equal(t, "office", snap.RoomID)
	assert.Equal(t, entities.Readings{"temperature": 23, "humidity": 55, "moisture": 41.5}, snap.Readings)
}

func TestLatestSnapshot_NoData(t *testing.T) {
	s := testSource(func(context.Context, string) ([]row, error) { return nil, nil })

	snap, err := s.LatestSnapshot(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestLatestSnapshot_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	s := testSource(func(context.Context, string) ([]row, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})

	for i := 0; i < 2; i++ {
		_, err := s.LatestSnapshot(context.Background(), "p1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrBreakerOpen))
	}

	_, err := s.LatestSnapshot(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits the query")
}

func TestLatestSnapshot_HonoursQueryTimeout(t *testing.T) {
	s := testSource(func(ctx context.Context, _ string) ([]row, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s.cfg.QueryTimeout = 20 * time.Millisecond

	_, err := s.LatestSnapshot(context.Background(), "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{1.5, 1.5, true},
		{int64(3), 3, true},
		{uint64(4), 4, true},
		{" 2.25 ", 2.25, true},
		{true, 1, true},
		{"abc", 0, false},
		{nil, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{"NaN", 0, false},
		{"-Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9)
		}
	}
}
