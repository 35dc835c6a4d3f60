package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

func resultOf(plants ...entities.Plant) *messages.DiscoveryResult {
	return &messages.DiscoveryResult{Plants: plants, Summary: messages.DiscoverySummary{TotalPlants: len(plants)}}
}

func plant(id, room string, r entities.Readings) entities.Plant {
	return entities.Plant{ID: id, RoomID: room, Readings: r}
}

func TestChangeCache_HasChanged(t *testing.T) {
	base := resultOf(
		plant("p1", "kitchen", entities.Readings{"temperature": 20}),
		plant("p2", "office", entities.Readings{"temperature": 22, "humidity": 50}),
	)

	tests := []struct {
		name string
		next *messages.DiscoveryResult
		want bool
	}{
		{
			name: "identical",
			next: resultOf(
				plant("p1", "kitchen", entities.Readings{"temperature": 20}),
				plant("p2", "office", entities.Readings{"temperature": 22, "humidity": 50}),
			),
			want: false,
		},
		{
			name: "same plants in other order",
			next: resultOf(
				plant("p2", "office", entities.Readings{"temperature": 22, "humidity": 50}),
				plant("p1", "kitchen", entities.Readings{"temperature": 20}),
			),
			want: false,
		},
		{
			name: "tiny value change",
			next: resultOf(
				plant("p1", "kitchen", entities.Readings{"temperature": 20.1}),
				plant("p2", "office", entities.Readings{"temperature": 22, "humidity": 50}),
			),
			want: true,
		},
		{
			name: "plant count differs",
			next: resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 20})),
			want: true,
		},
		{
			name: "plant replaced by a new id",
			next: resultOf(
				plant("p1", "kitchen", entities.Readings{"temperature": 20}),
				plant("p3", "office", entities.Readings{"temperature": 22, "humidity": 50}),
			),
			want: true,
		},
		{
			name: "room reassigned",
			next: resultOf(
				plant("p1", "office", entities.Readings{"temperature": 20}),
				plant("p2", "office", entities.Readings{"temperature": 22, "humidity": 50}),
			),
			want: true,
		},
		{
			name: "metric disappeared",
			next: resultOf(
				plant("p1", "kitchen", entities.Readings{"temperature": 20}),
				plant("p2", "office", entities.Readings{"temperature": 22}),
			),
			want: true,
		},
		{
			name: "metric swapped for another",
			next: resultOf(
				plant("p1", "kitchen", entities.Readings{"temperature": 20}),
				plant("p2", "office", entities.Readings{"temperature": 22, "moisture": 50}),
			),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChangeCache()
			c.Commit(base)
			assert.Equal(t, tt.want, c.HasChanged(tt.next))
		})
	}
}

func TestChangeCache_EmptyCacheIsChanged(t *testing.T) {
	c := NewChangeCache()
	assert.True(t, c.HasChanged(resultOf()))
	assert.Nil(t, c.Current())

	c.Commit(resultOf())
	assert.False(t, c.HasChanged(resultOf()))
}

func TestChangeCache_Apply(t *testing.T) {
	c := NewChangeCache()
	first := resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 20}))

	out := c.Apply(c.Begin(), first, false)
	assert.True(t, out.Committed)
	assert.True(t, out.Changed)
	assert.Same(t, first, out.Result)

	same := resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 20}))
	out = c.Apply(c.Begin(), same, false)
	assert.False(t, out.Committed)
	assert.False(t, out.Changed)
	assert.Same(t, first, out.Result, "unchanged passes hand back the cached result")

	out = c.Apply(c.Begin(), same, true)
	assert.True(t, out.Committed)
	assert.False(t, out.Changed)
	assert.Same(t, same, out.Result)
	assert.Same(t, same, c.Current())
}

func TestChangeCache_SupersededPassIsDiscarded(t *testing.T) {
	c := NewChangeCache()
	older := resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 20}))
	newer := resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 21}))

	seqOld := c.Begin()
	seqNew := c.Begin()

	out := c.Apply(seqNew, newer, false)
	require.True(t, out.Committed)

	out = c.Apply(seqOld, older, true)
	assert.True(t, out.Superseded)
	assert.False(t, out.Committed)
	assert.Same(t, newer, out.Result)
	assert.Same(t, newer, c.Current())
}

func TestChangeCache_NewerUncommittedPassDoesNotSupersede(t *testing.T) {
	c := NewChangeCache()
	base := resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 20}))
	require.True(t, c.Apply(c.Begin(), base, false).Committed)

	seqForced := c.Begin()
	seqNewer := c.Begin()

	// the newer pass sees nothing new and does not commit
	same := resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 20}))
	out := c.Apply(seqNewer, same, false)
	require.False(t, out.Committed)

	out = c.Apply(seqForced, same, true)
	assert.False(t, out.Superseded)
	assert.True(t, out.Committed)
	assert.Same(t, same, c.Current())
}

func TestChangeCache_OlderChangeCommitsWhenNewerNeverArrives(t *testing.T) {
	c := NewChangeCache()
	require.True(t, c.Apply(c.Begin(), resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 20})), false).Committed)

	seqOld := c.Begin()
	c.Begin() // newer pass that fails before Apply

	changed := resultOf(plant("p1", "kitchen", entities.Readings{"temperature": 30}))
	out := c.Apply(seqOld, changed, false)
	assert.False(t, out.Superseded)
	assert.True(t, out.Committed)
	assert.True(t, out.Changed)
	assert.Same(t, changed, c.Current())
}
