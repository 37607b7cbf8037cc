package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/goforj/querycache/cachetest"
)

func TestNullStoreContract(t *testing.T) {
	cachetest.RunStoreContract(t, newNullStore(), cachetest.Options{NullSemantics: true})
}

func TestNullStoreAlwaysRecomputes(t *testing.T) {
	ctx := context.Background()
	calls := 0
	tick := func() time.Time {
		calls++
		return time.Unix(int64(calls), 0)
	}
	qc := NewQueryCache(newNullStore(), WithClock(tick))

	first, err := qc.Lookup(ctx, "SELECT 1", nil)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	second, err := qc.Lookup(ctx, "SELECT 1", nil)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if first.Timestamp.Equal(second.Timestamp) {
		t.Fatalf("expected null store to recompute each lookup")
	}
	if n, _ := qc.Len(ctx); n != 0 {
		t.Fatalf("expected len=0, got %d", n)
	}
}
