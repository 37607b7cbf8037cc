package querycache

import (
	"context"
	"io"
	"net/url"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goforj/querycache/cachecore"
)

// Connector performs the single connection attempt made by Session.Connect.
type Connector interface {
	Connect(ctx context.Context, dsn string) error
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, dsn string) error

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, dsn string) error {
	return f(ctx, dsn)
}

// storeConnector pings stores that talk to a remote service and accepts the
// rest as-is.
type storeConnector struct {
	store Store
}

func (c storeConnector) Connect(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p, ok := c.store.(cachecore.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Session gates a QueryCache behind a connection flag. Queries fail with
// ErrNotConnected until Connect succeeds.
type Session struct {
	id        string
	dsn       string
	cache     *QueryCache
	connector Connector
	logger    *zap.Logger
	connected atomic.Bool
	closed    atomic.Bool
}

type sessionConfig struct {
	connector    Connector
	logger       *zap.Logger
	cacheOptions []Option
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

// WithConnector replaces the default connector, which pings remote stores.
func WithConnector(c Connector) SessionOption {
	return func(cfg *sessionConfig) { cfg.connector = c }
}

// WithSessionLogger sets the logger used by the session and its cache.
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(cfg *sessionConfig) { cfg.logger = l }
}

// WithCacheOptions passes options through to the session's QueryCache.
func WithCacheOptions(opts ...Option) SessionOption {
	return func(cfg *sessionConfig) { cfg.cacheOptions = append(cfg.cacheOptions, opts...) }
}

// NewSession creates a disconnected session for dsn whose results are cached
// in store. A nil store uses an unbounded in-memory store.
//
// Example: connect then query
//
//	ctx := context.Background()
//	s := querycache.NewSession("postgresql://localhost:5432/mydb", nil)
//	_, _ = s.Connect(ctx)
//	res, _ := s.Query(ctx, "SELECT * FROM users WHERE id = ?", " 42 ")
//	fmt.Println(res.Params, res.RowsAffected) // [42] 1
func NewSession(dsn string, store Store, opts ...SessionOption) *Session {
	cfg := sessionConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if store == nil {
		store = newMemoryStore()
	}
	if cfg.connector == nil {
		cfg.connector = storeConnector{store: store}
	}
	id := uuid.NewString()
	logger := cfg.logger.With(zap.String("session", id))
	cacheOpts := append([]Option{WithLogger(logger)}, cfg.cacheOptions...)
	return &Session{
		id:        id,
		dsn:       dsn,
		cache:     NewQueryCache(store, cacheOpts...),
		connector: cfg.connector,
		logger:    logger.With(zap.String("component", "session")),
	}
}

// ID returns the session identifier attached to its log lines.
func (s *Session) ID() string { return s.id }

// Cache returns the session's query cache.
func (s *Session) Cache() *QueryCache { return s.cache }

// IsConnected reports the connection flag.
func (s *Session) IsConnected() bool { return s.connected.Load() }

// Connect makes one connection attempt. On failure the session stays
// disconnected and the returned error is a *ConnectionError.
func (s *Session) Connect(ctx context.Context) (bool, error) {
	dsn := redactDSN(s.dsn)
	s.logger.Info("connecting", zap.String("dsn", dsn))
	defer s.logger.Debug("connection attempt completed", zap.String("dsn", dsn))

	if s.closed.Load() {
		return false, ErrClosed
	}
	if err := s.connector.Connect(ctx, s.dsn); err != nil {
		s.logger.Warn("failed to connect", zap.String("dsn", dsn), zap.Error(err))
		return false, &ConnectionError{DSN: dsn, Err: err}
	}
	s.connected.Store(true)
	return true, nil
}

// Query returns the cached result for query and params, computing it on the
// first call. It fails with ErrNotConnected before Connect succeeds.
func (s *Session) Query(ctx context.Context, query string, params ...string) (Result, error) {
	if s.closed.Load() {
		return Result{}, ErrClosed
	}
	if !s.connected.Load() {
		return Result{}, ErrNotConnected
	}
	return s.cache.Lookup(ctx, query, params)
}

// Close disconnects the session and releases the store when it holds
// resources.
func (s *Session) Close(_ context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	s.connected.Store(false)
	if c, ok := s.cache.Store().(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(err, "close store")
		}
	}
	return nil
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
