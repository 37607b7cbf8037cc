// Package config loads the querycache CLI configuration from YAML or TOML.
package config

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/goforj/querycache"
	"github.com/goforj/querycache/dispatch"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor
// TOML by extension.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Store selects and configures the cache backend.
type Store struct {
	Driver     string `yaml:"driver" toml:"driver"`
	Prefix     string `yaml:"prefix" toml:"prefix"`
	MaxEntries int    `yaml:"max_entries" toml:"max_entries"`
	FileDir    string `yaml:"file_dir" toml:"file_dir"`
	// Memoize puts a per-process read memo in front of the driver.
	Memoize bool `yaml:"memoize" toml:"memoize"`

	RedisAddr string `yaml:"redis_addr" toml:"redis_addr"`

	SQLDriver string `yaml:"sql_driver" toml:"sql_driver"`
	SQLDSN    string `yaml:"sql_dsn" toml:"sql_dsn"`
	SQLTable  string `yaml:"sql_table" toml:"sql_table"`

	NATSURL    string `yaml:"nats_url" toml:"nats_url"`
	NATSBucket string `yaml:"nats_bucket" toml:"nats_bucket"`

	DynamoEndpoint string `yaml:"dynamo_endpoint" toml:"dynamo_endpoint"`
	DynamoRegion   string `yaml:"dynamo_region" toml:"dynamo_region"`
	DynamoTable    string `yaml:"dynamo_table" toml:"dynamo_table"`
}

// Cache controls how results are keyed and encoded.
type Cache struct {
	Codec   string `yaml:"codec" toml:"codec"`
	KeyMode string `yaml:"key_mode" toml:"key_mode"`
	// EncryptionKey is a hex AES key (16, 24, or 32 bytes). Empty disables
	// encryption.
	EncryptionKey string `yaml:"encryption_key" toml:"encryption_key"`
}

// Dispatch controls batch failure handling.
type Dispatch struct {
	Policy string `yaml:"policy" toml:"policy"`
}

// Log controls the CLI logger.
type Log struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// Config mirrors the CLI configuration file.
type Config struct {
	// DSN is the connection string a session reports when connecting.
	DSN      string   `yaml:"dsn" toml:"dsn"`
	Store    Store    `yaml:"store" toml:"store"`
	Cache    Cache    `yaml:"cache" toml:"cache"`
	Dispatch Dispatch `yaml:"dispatch" toml:"dispatch"`
	Log      Log      `yaml:"log" toml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DSN:      "postgresql://localhost:5432/mydb",
		Store:    Store{Driver: string(querycache.DriverMemory)},
		Cache:    Cache{Codec: "json", KeyMode: querycache.KeyModeRaw.String()},
		Dispatch: Dispatch{Policy: dispatch.FailFast.String()},
		Log:      Log{Level: "info"},
	}
}

// Load reads path over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, errors.Wrapf(err, "read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF and leaves the defaults.
		if err := dec.Decode(&cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return cfg, errors.Wrapf(err, "%s", path)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, errors.Wrapf(err, "%s", path)
		}
	default:
		return cfg, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch querycache.Driver(c.Store.Driver) {
	case "", querycache.DriverNull, querycache.DriverMemory, querycache.DriverBounded,
		querycache.DriverFile, querycache.DriverRedis, querycache.DriverSQL,
		querycache.DriverNATS, querycache.DriverDynamo:
	default:
		return errors.Newf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.MaxEntries < 0 {
		return errors.Newf("store.max_entries must not be negative, got %d", c.Store.MaxEntries)
	}
	codec, err := querycache.ParseCodec(c.Cache.Codec)
	if err != nil {
		return err
	}
	if _, err := c.encryptedCodec(codec); err != nil {
		return err
	}
	switch c.Cache.KeyMode {
	case "", "raw", "cleaned":
	default:
		return errors.Newf("unknown cache.key_mode %q", c.Cache.KeyMode)
	}
	switch c.Dispatch.Policy {
	case "", "fail-fast", "best-effort":
	default:
		return errors.Newf("unknown dispatch.policy %q", c.Dispatch.Policy)
	}
	return nil
}

// StoreConfig converts the store section for querycache.NewStore. Clients for
// redis and nats are built by the caller from RedisAddr and NATSURL.
func (c Config) StoreConfig() querycache.StoreConfig {
	cfg := querycache.StoreConfig{
		Driver:         querycache.Driver(c.Store.Driver),
		FileDir:        c.Store.FileDir,
		SQLDriverName:  c.Store.SQLDriver,
		SQLDSN:         c.Store.SQLDSN,
		SQLTable:       c.Store.SQLTable,
		DynamoEndpoint: c.Store.DynamoEndpoint,
		DynamoRegion:   c.Store.DynamoRegion,
		DynamoTable:    c.Store.DynamoTable,
	}
	cfg.Prefix = c.Store.Prefix
	cfg.MaxEntries = c.Store.MaxEntries
	return cfg
}

// CacheOptions returns the QueryCache options selected by the cache section.
// Validate has already rejected unknown codecs and bad keys.
func (c Config) CacheOptions() []querycache.Option {
	codec, err := querycache.ParseCodec(c.Cache.Codec)
	if err != nil {
		codec = querycache.JSONCodec()
	}
	if enc, err := c.encryptedCodec(codec); err == nil {
		codec = enc
	}
	return []querycache.Option{
		querycache.WithCodec(codec),
		querycache.WithKeyMode(querycache.ParseKeyMode(c.Cache.KeyMode)),
	}
}

// Policy returns the dispatch policy.
func (c Config) Policy() dispatch.Policy {
	return dispatch.ParsePolicy(c.Dispatch.Policy)
}

func (c Config) encryptedCodec(inner querycache.Codec) (querycache.Codec, error) {
	if c.Cache.EncryptionKey == "" {
		return inner, nil
	}
	key, err := hex.DecodeString(c.Cache.EncryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "cache.encryption_key must be hex")
	}
	return querycache.Encrypted(inner, key)
}
