package index

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Store holds a lazily built Index shared by concurrent callers. The first
// Get builds it; concurrent first callers wait on the same build. A failed
// build is not cached, so the next Get retries.
type Store struct {
	root string
	opts []Option

	mu     sync.RWMutex
	idx    *Index
	group  singleflight.Group
	builds atomic.Int64
}

// NewStore returns a Store for the corpus at root. Nothing is scanned until
// the first Get.
func NewStore(root string, opts ...Option) *Store {
	return &Store{root: root, opts: opts}
}

// Root returns the corpus root.
func (s *Store) Root() string { return s.root }

// Get returns the index, building it on first use. ctx only bounds the wait;
// a build already in flight keeps running for other callers.
func (s *Store) Get(ctx context.Context) (*Index, error) {
	if idx := s.current(); idx != nil {
		return idx, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan("index", func() (any, error) {
		if idx := s.current(); idx != nil {
			return idx, nil
		}
		idx, err := s.build()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.idx = idx
		s.mu.Unlock()
		return idx, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Index), nil
	}
}

// Rebuild scans the corpus again and swaps the new index in. On error the
// previous index stays in place.
func (s *Store) Rebuild(ctx context.Context) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err, _ := s.group.Do("rebuild", func() (any, error) {
		idx, err := s.build()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.idx = idx
		s.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// Reset drops the cached index; the next Get rebuilds it.
func (s *Store) Reset() {
	s.mu.Lock()
	s.idx = nil
	s.mu.Unlock()
}

// Builds reports how many scans the store has run.
func (s *Store) Builds() int64 { return s.builds.Load() }

func (s *Store) current() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

func (s *Store) build() (*Index, error) {
	s.builds.Add(1)
	return Build(s.root, s.opts...)
}
