package querycache

import (
	"regexp"
	"testing"

	"pgregory.net/rapid"
)

var keyShape = regexp.MustCompile(`^query_[0-9a-f]+_[0-9a-f]+$`)

func TestDeriveKeyShape(t *testing.T) {
	key := DeriveKey(KeyModeRaw, "SELECT * FROM users WHERE id = ?", []string{"42"})
	if !keyShape.MatchString(key) {
		t.Fatalf("unexpected key shape %q", key)
	}
	if again := DeriveKey(KeyModeRaw, "SELECT * FROM users WHERE id = ?", []string{"42"}); again != key {
		t.Fatalf("expected deterministic key, got %q then %q", key, again)
	}
}

func TestDeriveKeySensitivity(t *testing.T) {
	base := DeriveKey(KeyModeRaw, "SELECT ?, ?", []string{"a", "b"})
	differs := map[string]string{
		"order":      DeriveKey(KeyModeRaw, "SELECT ?, ?", []string{"b", "a"}),
		"whitespace": DeriveKey(KeyModeRaw, "SELECT ?, ?", []string{" a", "b"}),
		"empty":      DeriveKey(KeyModeRaw, "SELECT ?, ?", []string{"a", "b", ""}),
		"query":      DeriveKey(KeyModeRaw, "SELECT ?,?", []string{"a", "b"}),
		"join":       DeriveKey(KeyModeRaw, "SELECT ?, ?", []string{"a, b"}),
	}
	for name, key := range differs {
		if key == base {
			t.Fatalf("%s: expected distinct key", name)
		}
	}
}

func TestDeriveKeyCleanedMode(t *testing.T) {
	a := DeriveKey(KeyModeCleaned, "SELECT ?", []string{" 42 ", ""})
	b := DeriveKey(KeyModeCleaned, "SELECT ?", []string{"42"})
	if a != b {
		t.Fatalf("expected cleaned mode to collapse whitespace variants")
	}
	if DeriveKey(KeyModeRaw, "SELECT ?", []string{" 42 ", ""}) == DeriveKey(KeyModeRaw, "SELECT ?", []string{"42"}) {
		t.Fatalf("expected raw mode to keep whitespace variants apart")
	}
}

func TestDeriveKeyNilMatchesEmpty(t *testing.T) {
	if DeriveKey(KeyModeRaw, "SELECT 1", nil) != DeriveKey(KeyModeRaw, "SELECT 1", []string{}) {
		t.Fatalf("expected nil and empty params to share a key")
	}
}

func TestKeyModeParseAndString(t *testing.T) {
	tests := []struct {
		in   string
		mode KeyMode
		name string
	}{
		{"raw", KeyModeRaw, "raw"},
		{"cleaned", KeyModeCleaned, "cleaned"},
		{"", KeyModeRaw, "raw"},
		{"CLEANED", KeyModeRaw, "raw"},
	}
	for _, tc := range tests {
		mode := ParseKeyMode(tc.in)
		if mode != tc.mode || mode.String() != tc.name {
			t.Fatalf("ParseKeyMode(%q) = %v (%s), want %v", tc.in, mode, mode, tc.mode)
		}
	}
	if got := KeyMode(7).String(); got != "KeyMode(7)" {
		t.Fatalf("unexpected string for unknown mode: %q", got)
	}
}

func TestDeriveKeyProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		query := rapid.String().Draw(t, "query")
		params := rapid.SliceOf(rapid.String()).Draw(t, "params")

		raw := DeriveKey(KeyModeRaw, query, params)
		if !keyShape.MatchString(raw) {
			t.Fatalf("unexpected key shape %q", raw)
		}
		if raw != DeriveKey(KeyModeRaw, query, append([]string(nil), params...)) {
			t.Fatalf("key depends on slice identity")
		}
		if DeriveKey(KeyModeCleaned, query, params) != DeriveKey(KeyModeRaw, query, CleanParams(params)) {
			t.Fatalf("cleaned mode must hash the cleaned list")
		}
	})
}
