package querycache

import "context"

// CoreAPI exposes cache metadata.
type CoreAPI interface {
	Driver() Driver
	Key(query string, params []string) string
}

// LookupAPI exposes memoized query lookups.
type LookupAPI interface {
	Lookup(ctx context.Context, query string, params []string) (Result, error)
}

// MaintenanceAPI exposes store maintenance.
type MaintenanceAPI interface {
	Flush(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// CacheAPI is the composed application-facing interface for QueryCache.
type CacheAPI interface {
	CoreAPI
	LookupAPI
	MaintenanceAPI
}

// Querier is the connection-gated query surface callers depend on.
type Querier interface {
	Query(ctx context.Context, query string, params ...string) (Result, error)
}

// SessionAPI is the composed application-facing interface for Session.
type SessionAPI interface {
	Querier
	Connect(ctx context.Context) (bool, error)
	IsConnected() bool
	Close(ctx context.Context) error
}

var (
	_ CacheAPI   = (*QueryCache)(nil)
	_ SessionAPI = (*Session)(nil)
)
