package querycache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSessionQueryBeforeConnectFails(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	var events int
	s := NewSession("postgresql://localhost:5432/mydb", store,
		WithCacheOptions(WithObserver(ObserverFunc(func(context.Context, Event) { events++ }))),
	)

	inputs := []struct {
		query  string
		params []string
	}{
		{"SELECT 1", nil},
		{"SELECT * FROM users WHERE id = ?", []string{"42"}},
		{"", []string{" ", ""}},
	}
	for _, in := range inputs {
		if _, err := s.Query(ctx, in.query, in.params...); !errors.Is(err, ErrNotConnected) {
			t.Fatalf("expected ErrNotConnected for %q, got %v", in.query, err)
		}
	}
	if s.IsConnected() {
		t.Fatalf("expected session to stay disconnected")
	}
	if store.gets.Load() != 0 || events != 0 {
		t.Fatalf("expected no cache access before connect; gets=%d events=%d", store.gets.Load(), events)
	}
}

func TestSessionConnectThenQuery(t *testing.T) {
	ctx := context.Background()
	s := NewSession("postgresql://localhost:5432/mydb", nil)
	if s.ID() == "" {
		t.Fatalf("expected session id")
	}

	ok, err := s.Connect(ctx)
	if err != nil || !ok {
		t.Fatalf("connect failed: ok=%v err=%v", ok, err)
	}
	if !s.IsConnected() {
		t.Fatalf("expected connected session")
	}

	first, err := s.Query(ctx, "SELECT * FROM users WHERE id = ?", " 42 ")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(first.Params) != 1 || first.Params[0] != "42" || first.RowsAffected != 1 {
		t.Fatalf("unexpected result %+v", first)
	}
	second, err := s.Query(ctx, "SELECT * FROM users WHERE id = ?", " 42 ")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !second.Timestamp.Equal(first.Timestamp) {
		t.Fatalf("expected cached result on second query")
	}
	if n, _ := s.Cache().Len(ctx); n != 1 {
		t.Fatalf("expected one cached entry, got %d", n)
	}
}

func TestSessionConnectFailureLeavesDisconnected(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("refused")
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewSession("postgresql://app:secret@db:5432/app", nil,
		WithConnector(ConnectorFunc(func(context.Context, string) error { return boom })),
		WithSessionLogger(zap.New(core)),
	)

	ok, err := s.Connect(ctx)
	if ok {
		t.Fatalf("expected failed connect")
	}
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConnectionError, got %T %v", err, err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to unwrap")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected password redacted, got %q", err.Error())
	}
	if s.IsConnected() {
		t.Fatalf("expected session to stay disconnected")
	}
	if _, err := s.Query(ctx, "SELECT 1"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after failed connect, got %v", err)
	}
	if got := logs.FilterMessage("connection attempt completed").Len(); got != 1 {
		t.Fatalf("expected completion log on failure, got %d", got)
	}
	if got := logs.FilterMessage("failed to connect").Len(); got != 1 {
		t.Fatalf("expected failure log, got %d", got)
	}
}

func TestSessionConnectPingsStore(t *testing.T) {
	boom := errors.New("init failed")
	s := NewSession("sqlite://", &errorStore{driver: DriverSQL, err: boom})
	if _, err := s.Connect(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store construction error surfaced on connect, got %v", err)
	}
}

func TestSessionConnectHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSession("postgresql://localhost/db", nil)
	if _, err := s.Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSessionConnectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewSession("postgresql://localhost/db", nil,
		WithConnector(ConnectorFunc(func(context.Context, string) error { attempts++; return nil })),
		WithSessionLogger(zap.New(core)),
	)
	for i := 0; i < 2; i++ {
		if ok, err := s.Connect(ctx); err != nil || !ok {
			t.Fatalf("connect %d failed: ok=%v err=%v", i, ok, err)
		}
	}
	if attempts != 2 || !s.IsConnected() {
		t.Fatalf("expected each Connect to attempt once; attempts=%d", attempts)
	}
	entries := logs.FilterMessage("connecting").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 connecting logs, got %d", len(entries))
	}
	if entries[0].ContextMap()["session"] != s.ID() {
		t.Fatalf("expected session id on log lines")
	}
}

type closingStore struct {
	Store
	closed int
	err    error
}

func (c *closingStore) Close() error {
	c.closed++
	return c.err
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()
	store := &closingStore{Store: newMemoryStore()}
	s := NewSession("postgresql://localhost/db", store)
	if _, err := s.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if store.closed != 1 {
		t.Fatalf("expected store closed once, got %d", store.closed)
	}
	if s.IsConnected() {
		t.Fatalf("expected disconnected after close")
	}
	if _, err := s.Query(ctx, "SELECT 1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Connect(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on reconnect, got %v", err)
	}
}

func TestSessionQueryAfterCloseIsNotConnected(t *testing.T) {
	ctx := context.Background()
	s := NewSession("postgresql://localhost/db", newMemoryStore())
	if _, err := s.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	_, err := s.Query(ctx, "SELECT 1")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after close, got %v", err)
	}
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	if errors.Is(ErrNotConnected, ErrClosed) {
		t.Fatalf("ErrNotConnected must not match ErrClosed")
	}
}

func TestSessionCloseReportsStoreError(t *testing.T) {
	boom := errors.New("close boom")
	s := NewSession("x", &closingStore{Store: newMemoryStore(), err: boom})
	if err := s.Close(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected close error, got %v", err)
	}
}

func TestSessionConcurrentQueries(t *testing.T) {
	ctx := context.Background()
	s := NewSession("postgresql://localhost/db", nil)
	if _, err := s.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := "SELECT 1"
			if i%2 == 1 {
				q = "SELECT 2"
			}
			if _, err := s.Query(ctx, q, "a"); err != nil {
				t.Errorf("query failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if n, _ := s.Cache().Len(ctx); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
}

func TestRedactDSN(t *testing.T) {
	tests := map[string]string{
		"postgresql://app:secret@db:5432/app": "postgresql://app:xxxxx@db:5432/app",
		"postgresql://localhost:5432/mydb":    "postgresql://localhost:5432/mydb",
		"not a url %zz":                       "not a url %zz",
	}
	for in, want := range tests {
		if got := redactDSN(in); got != want {
			t.Fatalf("redactDSN(%q) = %q, want %q", in, got, want)
		}
	}
}
