package querycache

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
)

var errNATSUnavailable = errors.New("nats cache key-value unavailable")

// NATSKeyValue captures the subset of nats.KeyValue used by the store.
type NATSKeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
	Purge(key string, opts ...nats.DeleteOpt) error
	ListKeys(opts ...nats.WatchOpt) (nats.KeyLister, error)
}

// natsStore keeps entries in a JetStream key-value bucket. Keys are scoped by
// prefix and base64-encoded so any key is a valid NATS subject token.
type natsStore struct {
	kv     NATSKeyValue
	prefix string
}

func newNATSStore(kv NATSKeyValue, prefix string) Store {
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	return &natsStore{
		kv:     kv,
		prefix: prefix,
	}
}

func (s *natsStore) Driver() Driver { return DriverNATS }

func (s *natsStore) Ping(context.Context) error {
	if s.kv == nil {
		return errNATSUnavailable
	}
	return nil
}

func (s *natsStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.kv == nil {
		return nil, false, errNATSUnavailable
	}
	entry, err := s.kv.Get(s.cacheKey(key))
	if isNATSMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.Operation() == nats.KeyValueDelete || entry.Operation() == nats.KeyValuePurge {
		return nil, false, nil
	}
	return cloneBytes(entry.Value()), true, nil
}

func (s *natsStore) Set(_ context.Context, key string, value []byte) error {
	if s.kv == nil {
		return errNATSUnavailable
	}
	_, err := s.kv.Put(s.cacheKey(key), cloneBytes(value))
	return err
}

func (s *natsStore) Delete(_ context.Context, key string) error {
	if s.kv == nil {
		return errNATSUnavailable
	}
	err := s.kv.Delete(s.cacheKey(key))
	if isNATSMiss(err) {
		return nil
	}
	return err
}

func (s *natsStore) Flush(_ context.Context) error {
	return s.eachKey(func(key string) error {
		if err := s.kv.Purge(key); err != nil && !isNATSMiss(err) {
			return err
		}
		return nil
	})
}

func (s *natsStore) Len(_ context.Context) (int, error) {
	n := 0
	err := s.eachKey(func(string) error {
		n++
		return nil
	})
	return n, err
}

// eachKey calls fn for every live key in this store's scope.
func (s *natsStore) eachKey(fn func(key string) error) error {
	if s.kv == nil {
		return errNATSUnavailable
	}
	lister, err := s.kv.ListKeys(nats.IgnoreDeletes())
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}
		return err
	}
	defer func() { _ = lister.Stop() }()

	scopePrefix := s.scopePrefix()
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, scopePrefix) {
			continue
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *natsStore) cacheKey(key string) string {
	return s.scopePrefix() + encodeNATSKeyPart(key)
}

func (s *natsStore) scopePrefix() string {
	return "p." + encodeNATSKeyPart(s.prefix) + ".k."
}

func isNATSMiss(err error) bool {
	return errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted)
}

func encodeNATSKeyPart(part string) string {
	if part == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(part))
}
