package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/goforj/querycache"
	"github.com/goforj/querycache/dispatch"
	"github.com/goforj/querycache/internal/person"
)

const (
	demoQuery  = "SELECT * FROM users WHERE id = ?"
	defaultOut = "demo_output.txt"
)

func sampleRecords() []dispatch.Record {
	return []dispatch.Record{
		{Type: "string", Value: "hello world"},
		{Type: "number", Value: 42},
		{Type: "boolean", Value: true},
		{Type: "unknown", Value: []any{1, 2, 3}},
		{Type: "string"},
	}
}

func newDemoCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the sample session, cached query, and record batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), out)
		},
	}
	cmd.Flags().StringVar(&out, "out", defaultOut, "file the greeting and even squares are written to")
	return cmd
}

func (a *app) runDemo(ctx context.Context, stdout, stderr io.Writer, outPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	alice, err := person.New("Alice", 30, "alice@example.com")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, alice.Greet())

	store, cleanup, err := openStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var lastHit bool
	opts := append(a.cfg.CacheOptions(), querycache.WithObserver(querycache.ObserverFunc(func(_ context.Context, ev querycache.Event) {
		lastHit = ev.Hit
	})))
	session := querycache.NewSession(a.cfg.DSN, store,
		querycache.WithSessionLogger(a.logger),
		querycache.WithCacheOptions(opts...),
	)
	defer func() { _ = session.Close(ctx) }()

	if _, err := session.Query(ctx, demoQuery, "42"); errors.Is(err, querycache.ErrNotConnected) {
		fmt.Fprintln(stdout, "Query before connect:", err)
	}
	connected, err := session.Connect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Connected:", connected)

	for i := 0; i < 2; i++ {
		res, err := session.Query(ctx, demoQuery, " 42 ", "", "active ")
		if err != nil {
			return err
		}
		body, err := json.Marshal(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Query result (cached=%t): %s\n", lastHit, body)
	}

	lines, err := dispatch.New(
		dispatch.WithPolicy(a.cfg.Policy()),
		dispatch.WithReporter(dispatch.WriterReporter(stderr)),
		dispatch.WithLogger(a.logger),
	).Dispatch(sampleRecords())
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(stdout, line)
	}

	if err := writeDemoOutput(outPath, alice, time.Now()); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Wrote", outPath)
	return nil
}

// evenSquares returns the squares of the even numbers below n.
func evenSquares(n int) []int {
	var out []int
	for i := 0; i < n; i += 2 {
		out = append(out, i*i)
	}
	return out
}

// writeDemoOutput writes the demo report: a header, the generation time, the
// person's greeting and the even squares below ten.
func writeDemoOutput(path string, p person.Person, now time.Time) error {
	squares := evenSquares(10)
	parts := make([]string, len(squares))
	for i, sq := range squares {
		parts[i] = fmt.Sprint(sq)
	}
	var b strings.Builder
	b.WriteString("# Demo Output\n")
	fmt.Fprintf(&b, "Generated at: %s\n", now.Format("2006-01-02 15:04:05.000000"))
	fmt.Fprintf(&b, "Person: %s\n", p.Greet())
	fmt.Fprintf(&b, "Even squares: [%s]\n", strings.Join(parts, ", "))
	body := b.String()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
