// Package history keeps a bounded, in-memory record of recently delivered
// watcher events, per file, for the daemon's history endpoint. It is
// purely a cache: nothing here is persisted, and eviction is expected
// under sustained load from many actively churning files.
package history

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"gestaltwatch/internal/buffer"
	"gestaltwatch/internal/watcher"
)

const defaultPerFileCapacity = 50

// Store holds up to maxFiles files' worth of event history, each bounded
// to perFileCapacity entries. Once maxFiles is exceeded the
// least-recently-touched file's entire history is evicted.
type Store struct {
	mu              sync.Mutex
	perFileCapacity int
	files           *lru.Cache[string, *buffer.Ring[watcher.Event]]
}

// NewStore constructs a Store holding history for up to maxFiles distinct
// files, perFileCapacity events each. Non-positive values fall back to
// reasonable defaults.
func NewStore(maxFiles, perFileCapacity int) (*Store, error) {
	if maxFiles <= 0 {
		maxFiles = 1000
	}
	if perFileCapacity <= 0 {
		perFileCapacity = defaultPerFileCapacity
	}
	cache, err := lru.New[string, *buffer.Ring[watcher.Event]](maxFiles)
	if err != nil {
		return nil, err
	}
	return &Store{perFileCapacity: perFileCapacity, files: cache}, nil
}

// Record appends event to path's history, evicting the oldest entry once
// the per-file ring is full.
func (s *Store) Record(path string, event watcher.Event) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, ok := s.files.Get(path)
	if !ok {
		ring = buffer.NewRing[watcher.Event](s.perFileCapacity)
		s.files.Add(path, ring)
	}
	ring.Add(event)
}

// Recent returns the events recorded for path, oldest first. It returns an
// empty slice, never nil, for a path with no history.
func (s *Store) Recent(path string) []watcher.Event {
	if s == nil {
		return []watcher.Event{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, ok := s.files.Get(path)
	if !ok {
		return []watcher.Event{}
	}
	events := ring.List()
	if events == nil {
		return []watcher.Event{}
	}
	return events
}

// AsObserver adapts the Store into a watcher.Observer that records every
// delivered event under its own path, so it can be registered on a
// Notifier alongside any other observer for the same file.
func (s *Store) AsObserver() watcher.Observer {
	return watcher.NewObserverFunc(func(event watcher.Event) {
		s.Record(event.Path(), event)
	})
}
