package querycache

import (
	"os"
	"path/filepath"

	"github.com/goforj/querycache/cachecore"
)

const (
	defaultCachePrefix  = "querycache"
	defaultMaxEntries   = 1000
	defaultSQLTable     = "query_cache"
	defaultDynamoTable  = "query_cache"
	defaultDynamoRegion = "us-east-1"
)

func defaultFileDir() string {
	return filepath.Join(os.TempDir(), "querycache")
}

// StoreConfig controls how a Store is constructed.
type StoreConfig struct {
	cachecore.BaseConfig

	Driver Driver

	// FileDir controls where the file driver writes entries.
	FileDir string

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// SQLDriverName is a database/sql driver: "pgx", "mysql", or "sqlite".
	SQLDriverName string
	SQLDSN        string
	SQLTable      string

	// NATSKeyValue is required when DriverNATS is used.
	NATSKeyValue NATSKeyValue

	// DynamoClient is optional; a client is built from region and endpoint
	// when nil.
	DynamoClient   DynamoAPI
	DynamoEndpoint string
	DynamoRegion   string
	DynamoTable    string
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Prefix == "" {
		c.Prefix = defaultCachePrefix
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = defaultMaxEntries
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = defaultDynamoRegion
	}
	return c
}
