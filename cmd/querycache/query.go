package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/goforj/querycache"
	"github.com/goforj/querycache/metrics"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		text        string
		params      []string
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Look up a query result in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, cleanup, err := openStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var hit bool
			reg := prometheus.NewRegistry()
			observer := querycache.Observers(
				querycache.ObserverFunc(func(_ context.Context, ev querycache.Event) {
					hit = ev.Hit
				}),
				metrics.NewObserver("querycache", reg, a.logger),
			)
			opts := append(a.cfg.CacheOptions(), querycache.WithObserver(observer))
			session := querycache.NewSession(a.cfg.DSN, store,
				querycache.WithSessionLogger(a.logger),
				querycache.WithCacheOptions(opts...),
			)
			defer func() { _ = session.Close(ctx) }()

			if err := printQuery(ctx, cmd.OutOrStdout(), session, session.Cache(), text, params, &hit); err != nil {
				return err
			}
			if showMetrics {
				return writeMetrics(cmd.OutOrStdout(), reg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "sql", "", "query text")
	cmd.Flags().StringArrayVar(&params, "param", nil, "query parameter; repeat for more than one")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print cache counters after the lookup")
	_ = cmd.MarkFlagRequired("sql")
	return cmd
}

// printQuery connects s, runs text through it and prints the result with
// its cache key. The entry count is printed when the store can report it.
func printQuery(ctx context.Context, w io.Writer, s querycache.SessionAPI, cache querycache.CacheAPI, text string, params []string, hit *bool) error {
	if _, err := s.Connect(ctx); err != nil {
		return err
	}
	res, err := s.Query(ctx, text, params...)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(body))
	fmt.Fprintf(w, "cached: %t\nkey: %s\n", *hit, cache.Key(text, params))
	if n, err := cache.Len(ctx); err == nil {
		fmt.Fprintf(w, "entries: %d\n", n)
	}
	return nil
}

// writeMetrics prints counters as "name{labels} value" and histograms by
// sample count.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			labels := "{" + strings.Join(pairs, ",") + "}"
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				lines = append(lines, fmt.Sprintf("%s_count%s %d", mf.GetName(), labels, m.GetHistogram().GetSampleCount()))
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
