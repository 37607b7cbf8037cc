package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/goforj/querycache"
	"github.com/goforj/querycache/internal/config"
)

// openStore builds the configured store. The returned cleanup releases any
// client connections opened for it.
func openStore(ctx context.Context, cfg config.Config) (querycache.Store, func(), error) {
	sc := cfg.StoreConfig()
	cleanup := func() {}
	switch sc.Driver {
	case querycache.DriverRedis:
		if cfg.Store.RedisAddr == "" {
			return nil, cleanup, errors.New("store.redis_addr is required for the redis driver")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		sc.RedisClient = client
		cleanup = func() { _ = client.Close() }
	case querycache.DriverNATS:
		kv, nc, err := openNATSBucket(cfg.Store.NATSURL, cfg.Store.NATSBucket)
		if err != nil {
			return nil, cleanup, err
		}
		sc.NATSKeyValue = kv
		cleanup = nc.Close
	}
	store := querycache.NewStore(ctx, sc)
	if cfg.Store.Memoize {
		store = querycache.NewMemoStore(store)
	}
	return store, cleanup, nil
}

func openNATSBucket(url, bucket string) (nats.KeyValue, *nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if bucket == "" {
		bucket = "querycache"
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "connect nats %s", url)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, errors.Wrap(err, "jetstream")
	}
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket})
	}
	if err != nil {
		nc.Close()
		return nil, nil, errors.Wrapf(err, "key-value bucket %s", bucket)
	}
	return kv, nc, nil
}
