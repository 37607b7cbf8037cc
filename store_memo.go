package querycache

import (
	"context"
	"sync"

	"github.com/goforj/querycache/cachecore"
)

type memoEntry struct {
	body []byte
	ok   bool
}

// NewMemoStore decorates store with per-process read memoization, so repeated
// lookups against a remote backend stop at the first read. Writes through the
// decorator invalidate the memo; writes made by other processes are not seen
// until Flush.
//
// Example: memoize a redis store
//
//	ctx := context.Background()
//	base := querycache.NewRedisStore(ctx, redisClient)
//	qc := querycache.NewQueryCache(querycache.NewMemoStore(base))
//	_ = qc
func NewMemoStore(store Store) Store {
	return &memoStore{
		store: store,
		items: make(map[string]memoEntry),
	}
}

type memoStore struct {
	store Store
	mu    sync.RWMutex
	items map[string]memoEntry
	// gen advances on every invalidation. A read only memoizes its result
	// when no invalidation happened while it was in flight.
	gen uint64
}

func (s *memoStore) Driver() Driver {
	return s.store.Driver()
}

func (s *memoStore) Ping(ctx context.Context) error {
	if p, ok := s.store.(cachecore.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Get memoizes both hits and misses. Errors are never memoized.
func (s *memoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.items[key]
	gen := s.gen
	s.mu.RUnlock()
	if ok {
		return cloneBytes(entry.body), entry.ok, nil
	}

	body, exists, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.items[key] = memoEntry{body: cloneBytes(body), ok: exists}
	}
	s.mu.Unlock()

	return body, exists, nil
}

func (s *memoStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return err
	}
	s.forget(key)
	return nil
}

func (s *memoStore) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.forget(key)
	return nil
}

func (s *memoStore) Flush(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = make(map[string]memoEntry)
	s.gen++
	s.mu.Unlock()
	return nil
}

// Len asks the backing store; memoized misses are not entries.
func (s *memoStore) Len(ctx context.Context) (int, error) {
	counter, ok := s.store.(cachecore.Counter)
	if !ok {
		return 0, ErrLenUnsupported
	}
	return counter.Len(ctx)
}

// Close releases the backing store when it holds resources.
func (s *memoStore) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (s *memoStore) forget(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.gen++
	s.mu.Unlock()
}
