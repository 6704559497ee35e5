package oracle

import (
	"context"
	"time"

	"github.com/etnz/cryptotax/date"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// ResolveTotal counts price lookups partitioned by outcome.
	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ctax_oracle_resolve_total",
		Help: "Total number of price lookups",
	}, []string{"outcome"})

	// ResolveDuration tracks price lookup latency.
	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ctax_oracle_resolve_duration_seconds",
		Help:    "Price lookup latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// Outcome returns the metric label for a Resolve result.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch KindOf(err) {
	case NotFound:
		return "not_found"
	case Unreachable:
		return "unreachable"
	case MalformedResponse:
		return "malformed"
	default:
		return "error"
	}
}

// Instrument wraps o to record lookups in ResolveTotal and ResolveDuration.
func Instrument(o Oracle) Oracle {
	return Func(func(ctx context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error) {
		start := time.Now()
		p, err := o.Resolve(ctx, asset, on, currency)
		ResolveDuration.Observe(time.Since(start).Seconds())
		ResolveTotal.WithLabelValues(Outcome(err)).Inc()
		return p, err
	})
}
