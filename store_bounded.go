package querycache

import (
	"context"
	"sync/atomic"

	"github.com/maypok86/otter/v2"
)

// boundedStore caps the number of entries. When full, otter evicts the entry
// least likely to be reused (W-TinyLFU), which for query workloads behaves
// close to least-recently-used.
type boundedStore struct {
	cache     *otter.Cache[string, []byte]
	max       int
	evictions atomic.Int64
}

func newBoundedStore(maxEntries int) Store {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	s := &boundedStore{max: maxEntries}
	s.cache = otter.Must(&otter.Options[string, []byte]{
		MaximumSize: maxEntries,
		OnDeletion: func(e otter.DeletionEvent[string, []byte]) {
			if e.WasEvicted() {
				s.evictions.Add(1)
			}
		},
	})
	return s
}

func (s *boundedStore) Driver() Driver { return DriverBounded }

func (s *boundedStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	body, ok := s.cache.GetIfPresent(key)
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(body), true, nil
}

func (s *boundedStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Set(key, cloneBytes(value))
	return nil
}

func (s *boundedStore) Delete(_ context.Context, key string) error {
	s.cache.Invalidate(key)
	return nil
}

func (s *boundedStore) Flush(_ context.Context) error {
	s.cache.InvalidateAll()
	return nil
}

// Len applies pending evictions before reporting the size.
func (s *boundedStore) Len(_ context.Context) (int, error) {
	s.cache.CleanUp()
	return s.cache.EstimatedSize(), nil
}

// Capacity reports the configured entry cap.
func (s *boundedStore) Capacity() int { return s.max }

// Evictions reports how many entries were dropped to stay under capacity.
func (s *boundedStore) Evictions() int64 { return s.evictions.Load() }
