package querycache

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// KeyMode selects which parameter list a cache key is derived from.
type KeyMode int

const (
	// KeyModeRaw hashes the parameters exactly as passed. Lists that only
	// differ in whitespace produce different keys even though their cleaned
	// values are identical.
	KeyModeRaw KeyMode = iota
	// KeyModeCleaned hashes the cleaned parameter list, so whitespace
	// variants share one entry.
	KeyModeCleaned
)

func (m KeyMode) String() string {
	switch m {
	case KeyModeRaw:
		return "raw"
	case KeyModeCleaned:
		return "cleaned"
	default:
		return "KeyMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseKeyMode maps "raw" or "cleaned" to a KeyMode. Anything else is raw.
func ParseKeyMode(s string) KeyMode {
	if s == "cleaned" {
		return KeyModeCleaned
	}
	return KeyModeRaw
}

// DeriveKey builds the cache key for a query and its parameters.
func DeriveKey(mode KeyMode, query string, params []string) string {
	if mode == KeyModeCleaned {
		params = CleanParams(params)
	}
	return "query_" + hashHex(query) + "_" + hashHex(paramsRepr(params))
}

// paramsRepr is the order-sensitive textual form of a parameter list.
// A nil list and an empty list render the same.
func paramsRepr(params []string) string {
	if len(params) == 0 {
		return "[]"
	}
	return fmt.Sprintf("%q", params)
}

func hashHex(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
