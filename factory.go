package querycache

import "context"

// NewStore returns a concrete store for the requested driver. When a driver
// cannot be initialized the returned store reports the construction error on
// every call, so Session.Connect fails with a *ConnectionError.
//
// Example: select driver explicitly
//
//	ctx := context.Background()
//	store := querycache.NewStore(ctx, querycache.StoreConfig{
//		Driver: querycache.DriverMemory,
//	})
//	fmt.Println(store.Driver()) // memory
func NewStore(ctx context.Context, cfg StoreConfig) Store {
	cfg = cfg.withDefaults()
	switch cfg.Driver {
	case DriverNull:
		return newNullStore()
	case DriverBounded:
		return newBoundedStore(cfg.MaxEntries)
	case DriverFile:
		return newFileStore(cfg.FileDir)
	case DriverRedis:
		return newRedisStore(cfg.RedisClient, cfg.Prefix)
	case DriverNATS:
		return newNATSStore(cfg.NATSKeyValue, cfg.Prefix)
	case DriverSQL:
		store, err := newSQLStore(ctx, cfg)
		if err != nil {
			return &errorStore{driver: DriverSQL, err: err}
		}
		return store
	case DriverDynamo:
		store, err := newDynamoStore(ctx, cfg)
		if err != nil {
			return &errorStore{driver: DriverDynamo, err: err}
		}
		return store
	default:
		return newMemoryStore()
	}
}

// NewStoreWith builds a store using a driver and a set of functional options.
//
// Example: bounded store (options)
//
//	ctx := context.Background()
//	store := querycache.NewStoreWith(ctx, querycache.DriverBounded, querycache.WithMaxEntries(128))
//	fmt.Println(store.Driver()) // bounded
func NewStoreWith(ctx context.Context, driver Driver, opts ...StoreOption) Store {
	cfg := StoreConfig{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return NewStore(ctx, cfg)
}

// NewMemoryStore is a convenience for an unbounded in-process store.
func NewMemoryStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverMemory, opts...)
}

// NewBoundedStore is a convenience for a size-capped in-process store.
func NewBoundedStore(ctx context.Context, maxEntries int, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverBounded, append([]StoreOption{WithMaxEntries(maxEntries)}, opts...)...)
}

// NewFileStore is a convenience for a filesystem-backed store.
func NewFileStore(ctx context.Context, dir string, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverFile, append([]StoreOption{WithFileDir(dir)}, opts...)...)
}

// NewRedisStore is a convenience for a redis-backed store. Redis client is required.
//
// Example: redis helper
//
//	ctx := context.Background()
//	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	store := querycache.NewRedisStore(ctx, redisClient, querycache.WithPrefix("app"))
//	fmt.Println(store.Driver()) // redis
func NewRedisStore(ctx context.Context, client RedisClient, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverRedis, append([]StoreOption{WithRedisClient(client)}, opts...)...)
}

// NewSQLStore is a convenience for a database/sql-backed store.
func NewSQLStore(ctx context.Context, driverName, dsn string, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverSQL, append([]StoreOption{WithSQL(driverName, dsn, "")}, opts...)...)
}

// NewNATSStore is a convenience for a NATS JetStream key-value store.
func NewNATSStore(ctx context.Context, kv NATSKeyValue, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverNATS, append([]StoreOption{WithNATSKeyValue(kv)}, opts...)...)
}

// NewDynamoStore is a convenience for a DynamoDB-backed store.
func NewDynamoStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverDynamo, opts...)
}

// NewNullStore returns a store that never retains entries, so every lookup
// recomputes.
func NewNullStore(ctx context.Context) Store {
	return NewStoreWith(ctx, DriverNull)
}
