// Package snapshot holds the read-only historical statistics and workload view
// that predictions are computed against.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/miradorstack/sda-engine/internal/models"
)

// Snapshot is an immutable view of per-role history and pending workload.
// Values published through a Store must not be mutated afterwards.
type Snapshot struct {
	Stats    map[models.Role]models.HistoricalStat
	Workload map[models.Role]int
	// RefreshedAt is the last time every configured source was read successfully.
	RefreshedAt time.Time
}

// Empty reports whether the snapshot carries no data at all.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Stats) == 0 && len(s.Workload) == 0)
}

var empty = &Snapshot{
	Stats:    map[models.Role]models.HistoricalStat{},
	Workload: map[models.Role]int{},
}

// Store publishes snapshots to concurrent readers.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store holding an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{
		Stats:    map[models.Role]models.HistoricalStat{},
		Workload: map[models.Role]int{},
	})
	return s
}

// Current returns the latest published snapshot; never nil. A nil Store reads as
// permanently empty.
func (s *Store) Current() *Snapshot {
	if s == nil {
		return empty
	}
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return empty
}

// Publish replaces the current snapshot. Nil maps are replaced with empty ones.
func (s *Store) Publish(snap *Snapshot) {
	if snap == nil {
		return
	}
	if snap.Stats == nil {
		snap.Stats = map[models.Role]models.HistoricalStat{}
	}
	if snap.Workload == nil {
		snap.Workload = map[models.Role]int{}
	}
	s.current.Store(snap)
}
