package querycache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/goforj/querycache/cachecore"
)

// ErrLenUnsupported is returned by Len when the store cannot count entries.
var ErrLenUnsupported = errors.New("querycache: store does not report its size")

// QueryCache memoizes query results in a Store under a key derived from the
// query text and its parameters.
type QueryCache struct {
	store    Store
	codec    Codec
	keyMode  KeyMode
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
	group    singleflight.Group
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithCodec sets how results are encoded in the store.
func WithCodec(codec Codec) Option {
	return func(c *QueryCache) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithKeyMode selects raw or cleaned parameter keys.
func WithKeyMode(mode KeyMode) Option {
	return func(c *QueryCache) { c.keyMode = mode }
}

// WithObserver attaches an observer to receive operation events.
func WithObserver(o Observer) Option {
	return func(c *QueryCache) { c.observer = o }
}

// WithLogger sets the logger. Hits and misses are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *QueryCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the timestamp source for new results.
func WithClock(now func() time.Time) Option {
	return func(c *QueryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewQueryCache creates a cache bound to store. A nil store falls back to an
// unbounded in-memory store.
//
// Example: memoize a query
//
//	ctx := context.Background()
//	qc := querycache.NewQueryCache(querycache.NewMemoryStore(ctx))
//	first, _ := qc.Lookup(ctx, "SELECT 1", []string{" a ", "b"})
//	second, _ := qc.Lookup(ctx, "SELECT 1", []string{" a ", "b"})
//	fmt.Println(first.Timestamp.Equal(second.Timestamp)) // true
func NewQueryCache(store Store, opts ...Option) *QueryCache {
	if store == nil {
		store = newMemoryStore()
	}
	c := &QueryCache{
		store:  store,
		codec:  JSONCodec(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "querycache"), zap.String("driver", string(store.Driver())))
	return c
}

// Store returns the underlying store.
func (c *QueryCache) Store() Store { return c.store }

// Driver reports the underlying store driver.
func (c *QueryCache) Driver() Driver { return c.store.Driver() }

// Key returns the cache key for query and params under this cache's KeyMode.
func (c *QueryCache) Key(query string, params []string) string {
	return DeriveKey(c.keyMode, query, params)
}

type lookup struct {
	result Result
	hit    bool
}

// Lookup returns the stored result for (query, params), computing and storing
// it on a miss. A hit returns the stored value unchanged. Concurrent misses
// on the same key share a single computation.
func (c *QueryCache) Lookup(ctx context.Context, query string, params []string) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	key := c.Key(query, params)

	res, ok, err := c.get(ctx, key)
	if err != nil {
		c.observe(ctx, OpQuery, key, false, err, start)
		return Result{}, err
	}
	if ok {
		c.logger.Debug("cache hit", zap.String("key", key))
		c.observe(ctx, OpQuery, key, true, nil, start)
		return cloneResult(res), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have stored the entry between our read and
		// acquiring the flight.
		if res, ok, err := c.get(ctx, key); err != nil || ok {
			return lookup{result: res, hit: ok}, err
		}
		res := newResult(query, params, c.now())
		body, err := c.codec.Encode(res)
		if err != nil {
			return lookup{}, errors.Wrap(err, "encode query result")
		}
		if err := c.store.Set(ctx, key, body); err != nil {
			return lookup{}, errors.Wrapf(err, "store query result %s", key)
		}
		return lookup{result: res}, nil
	})
	if err != nil {
		c.observe(ctx, OpQuery, key, false, err, start)
		return Result{}, err
	}
	out := v.(lookup)
	if out.hit {
		c.logger.Debug("cache hit", zap.String("key", key))
	} else {
		c.logger.Debug("cache miss", zap.String("key", key), zap.Int("params", out.result.RowsAffected))
	}
	c.observe(ctx, OpQuery, key, out.hit, nil, start)
	return cloneResult(out.result), nil
}

// Flush removes every entry from the store scope.
func (c *QueryCache) Flush(ctx context.Context) error {
	start := time.Now()
	err := c.store.Flush(ctx)
	c.observe(ctx, OpFlush, "", err == nil, err, start)
	return err
}

// Len reports the number of cached entries when the store supports it.
func (c *QueryCache) Len(ctx context.Context) (int, error) {
	counter, ok := c.store.(cachecore.Counter)
	if !ok {
		return 0, ErrLenUnsupported
	}
	return counter.Len(ctx)
}

func (c *QueryCache) get(ctx context.Context, key string) (Result, bool, error) {
	body, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return Result{}, false, err
	}
	res, err := c.codec.Decode(body)
	if err != nil {
		return Result{}, false, errors.Wrapf(err, "cached entry %s", key)
	}
	return res, true, nil
}

func (c *QueryCache) observe(ctx context.Context, op, key string, hit bool, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.OnQuery(ctx, Event{
		Op:       op,
		Key:      key,
		Hit:      hit,
		Err:      err,
		Duration: time.Since(start),
		Driver:   c.Driver(),
	})
}

// cloneResult copies Params. An empty list stays non-nil so a miss and the
// following hit encode the same way.
func cloneResult(r Result) Result {
	r.Params = append(make([]string, 0, len(r.Params)), r.Params...)
	return r
}
