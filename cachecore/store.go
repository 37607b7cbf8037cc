package cachecore

import "context"

// Store holds encoded query results keyed by derived cache key.
//
// Entries written with Set never expire on their own. Only Delete, Flush, or a
// capacity-bounded driver removes them.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}

// Counter is implemented by stores that can report how many entries they hold.
type Counter interface {
	Len(ctx context.Context) (int, error)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
