package discovery

import (
	"sync"
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// ChangeCache holds the current DiscoveryResult and decides whether a new one
// differs from it. Committed results are shared with readers and must not be
// modified.
type ChangeCache struct {
	mu          sync.Mutex
	current     *messages.DiscoveryResult
	byID        map[string]entities.Plant
	committedAt time.Time
	checkedAt   time.Time
	started     uint64
	committed   uint64
	now         func() time.Time
}

// ApplyOutcome reports what Apply did with a result.
type ApplyOutcome struct {
	// Result is what the caller should hand out: the new result when committed,
	// the cached one otherwise. Nil only when nothing was ever committed.
	Result *messages.DiscoveryResult
	// Changed is the diff verdict against the previous cached result.
	Changed bool
	// Committed is true when the new result replaced the cached one.
	Committed bool
	// Superseded is true when a newer pass committed before this one arrived.
	Superseded bool
}

func NewChangeCache() *ChangeCache {
	return &ChangeCache{now: time.Now}
}

// Begin registers the start of a pass and returns its sequence number.
func (c *ChangeCache) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
	return c.started
}

// Apply diffs next against the cache and commits it when it changed or force is
// set, as one atomic step. A result is discarded when a pass that began after
// it has already committed.
func (c *ChangeCache) Apply(seq uint64, next *messages.DiscoveryResult, force bool) ApplyOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.committed {
		return ApplyOutcome{Result: c.current, Superseded: true}
	}

	c.checkedAt = c.now()
	changed := c.hasChangedLocked(next)
	if !changed && !force {
		return ApplyOutcome{Result: c.current}
	}
	c.commitLocked(next)
	if seq > c.committed {
		c.committed = seq
	}
	return ApplyOutcome{Result: next, Changed: changed, Committed: true}
}

// HasChanged reports whether next differs from the cached result.
func (c *ChangeCache) HasChanged(next *messages.DiscoveryResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasChangedLocked(next)
}

// Commit replaces the cached result wholesale.
func (c *ChangeCache) Commit(next *messages.DiscoveryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkedAt = c.now()
	c.commitLocked(next)
}

func (c *ChangeCache) hasChangedLocked(next *messages.DiscoveryResult) bool {
	if c.current == nil {
		return true
	}
	if len(next.Plants) != len(c.current.Plants) {
		return true
	}
	for _, p := range next.Plants {
		old, ok := c.byID[p.ID]
		if !ok {
			return true
		}
		if plantDiffers(old, p) {
			return true
		}
	}
	return false
}

// plantDiffers compares readings in metric order, then the room, with strict equality.
func plantDiffers(old, next entities.Plant) bool {
	if len(old.Readings) != len(next.Readings) {
		return true
	}
	for _, m := range next.Readings.OrderedKeys() {
		ov, ok := old.Readings[m]
		if !ok || ov != next.Readings[m] {
			return true
		}
	}
	return old.RoomID != next.RoomID
}

func (c *ChangeCache) commitLocked(next *messages.DiscoveryResult) {
	byID := make(map[string]entities.Plant, len(next.Plants))
	for _, p := range next.Plants {
		byID[p.ID] = p
	}
	c.current = next
	c.byID = byID
	c.committedAt = c.now()
}

// Current returns the cached result, or nil before the first commit.
func (c *ChangeCache) Current() *messages.DiscoveryResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CommittedAt returns when the cached result was committed.
func (c *ChangeCache) CommittedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committedAt
}

// CheckedAt returns when a pass last compared against the cache, changed or not.
func (c *ChangeCache) CheckedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkedAt
}
