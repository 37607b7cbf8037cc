package querycache

import (
	"strings"
	"time"
)

// Result is the value memoized for one (query, params) pair.
type Result struct {
	Query        string    `json:"sql" msgpack:"sql"`
	Params       []string  `json:"params" msgpack:"params"`
	Timestamp    time.Time `json:"timestamp" msgpack:"timestamp"`
	RowsAffected int       `json:"rows_affected" msgpack:"rows_affected"`
}

// CleanParams trims whitespace from each parameter and drops empty ones,
// preserving order. Emptiness is judged on the raw value, so a parameter of
// only spaces survives as "". The result is never nil.
func CleanParams(params []string) []string {
	cleaned := make([]string, 0, len(params))
	for _, p := range params {
		if p == "" {
			continue
		}
		cleaned = append(cleaned, strings.TrimSpace(p))
	}
	return cleaned
}

func newResult(query string, params []string, now time.Time) Result {
	cleaned := CleanParams(params)
	return Result{
		Query:        query,
		Params:       cleaned,
		Timestamp:    now.UTC(),
		RowsAffected: len(cleaned),
	}
}
