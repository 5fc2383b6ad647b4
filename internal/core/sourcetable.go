package core

import (
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
)

// DefaultStaleThreshold is how long a source may stay silent and still be live
const DefaultStaleThreshold = 180 * time.Second

type sourceState struct {
	lastRetries int
	lastSeenAt  time.Time
}

// SourceTable maps each source to its latest retry count and last-seen time.
// Entries are created on first sight and never removed. Snapshots list
// sources in the order they were first seen.
type SourceTable struct {
	entries   map[string]*sourceState
	order     []string
	threshold time.Duration
	mutex     sync.RWMutex
	BaseComponent
}

// NewSourceTable creates an empty table. A non-positive threshold selects
// DefaultStaleThreshold.
func NewSourceTable(threshold time.Duration) *SourceTable {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}

	return &SourceTable{
		entries:       make(map[string]*sourceState),
		threshold:     threshold,
		BaseComponent: NewBaseComponent("source_table", "Source Table"),
	}
}

// Initialize prepares the source table for operation
func (t *SourceTable) Initialize() bool {
	t.SetStatus(model.StatusInitialized)
	return true
}

// Start begins source table operation
func (t *SourceTable) Start() bool {
	t.SetStatus(model.StatusRunning)
	return true
}

// Stop marks the table stopped. Entries are kept so a final snapshot can
// still be rendered.
func (t *SourceTable) Stop() bool {
	t.SetStatus(model.StatusStopped)
	return true
}

// Update records the latest retry count for a source, replacing the
// previous value.
func (t *SourceTable) Update(source string, retries int, at time.Time) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	state, exists := t.entries[source]
	if !exists {
		state = &sourceState{}
		t.entries[source] = state
		t.order = append(t.order, source)
	}

	state.lastRetries = retries
	state.lastSeenAt = at
}

// Snapshot returns a copy of every entry with liveness evaluated at now.
// A source is live while now - lastSeen <= threshold.
func (t *SourceTable) Snapshot(now time.Time) model.Snapshot {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	sources := make([]model.SourceStatus, 0, len(t.order))
	for _, source := range t.order {
		state := t.entries[source]
		sources = append(sources, model.SourceStatus{
			Source:   source,
			Retries:  state.lastRetries,
			LastSeen: state.lastSeenAt,
			Live:     now.Sub(state.lastSeenAt) <= t.threshold,
		})
	}

	return model.Snapshot{
		TakenAt:   now,
		Threshold: t.threshold,
		Sources:   sources,
	}
}

// Len returns the number of distinct sources seen so far
func (t *SourceTable) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.order)
}

// Threshold returns the staleness threshold
func (t *SourceTable) Threshold() time.Duration {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.threshold
}

// SetThreshold changes the staleness threshold for future snapshots.
// Non-positive values are ignored.
func (t *SourceTable) SetThreshold(threshold time.Duration) {
	if threshold <= 0 {
		return
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.threshold = threshold
}
