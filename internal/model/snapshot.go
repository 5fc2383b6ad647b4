package model

import "time"

// SourceStatus is a read-only copy of one source's liveness entry
type SourceStatus struct {
	Source   string    `json:"source"`
	Retries  int       `json:"retries"`
	LastSeen time.Time `json:"last_seen"`
	Live     bool      `json:"live"`
}

// Snapshot is a point-in-time view of the source table.
// Sources are ordered by the time each source was first seen.
type Snapshot struct {
	TakenAt   time.Time      `json:"taken_at"`
	Threshold time.Duration  `json:"threshold"`
	Sources   []SourceStatus `json:"sources"`
}

// Lookup returns the status of a single source
func (s Snapshot) Lookup(source string) (SourceStatus, bool) {
	for _, status := range s.Sources {
		if status.Source == source {
			return status, true
		}
	}
	return SourceStatus{}, false
}

// OfflineCount returns how many sources are stale
func (s Snapshot) OfflineCount() int {
	n := 0
	for _, status := range s.Sources {
		if !status.Live {
			n++
		}
	}
	return n
}
