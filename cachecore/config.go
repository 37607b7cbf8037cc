package cachecore

// BaseConfig contains shared, backend-agnostic driver configuration.
type BaseConfig struct {
	// Prefix namespaces keys in shared backends.
	Prefix string
	// MaxEntries caps the bounded driver. Other drivers ignore it.
	MaxEntries int
}
