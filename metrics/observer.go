// Package metrics exports QueryCache activity as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/goforj/querycache"
)

// Observer implements querycache.Observer by counting lookups per driver and
// outcome.
type Observer struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewObserver registers the query cache metrics under namespace with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewObserver(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	return &Observer{
		hits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_hits_total",
				Help:      "Total number of query cache hits",
			},
			[]string{"driver"},
		),
		misses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_misses_total",
				Help:      "Total number of query cache misses",
			},
			[]string{"driver"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_errors_total",
				Help:      "Total number of failed query cache operations",
			},
			[]string{"driver", "op"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_cache_operation_duration_seconds",
				Help:      "Query cache operation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"driver", "op"},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// OnQuery implements querycache.Observer.
func (o *Observer) OnQuery(_ context.Context, ev querycache.Event) {
	driver := string(ev.Driver)
	o.duration.WithLabelValues(driver, ev.Op).Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		o.errors.WithLabelValues(driver, ev.Op).Inc()
		o.logger.Debug("query cache operation failed",
			zap.String("op", ev.Op),
			zap.String("driver", driver),
			zap.Error(ev.Err),
		)
		return
	}
	if ev.Op != querycache.OpQuery {
		return
	}
	if ev.Hit {
		o.hits.WithLabelValues(driver).Inc()
	} else {
		o.misses.WithLabelValues(driver).Inc()
	}
}
