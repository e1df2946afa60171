package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/notion-picker/pkg/logging"
	"github.com/Sternrassler/notion-picker/pkg/metrics"
)

// Prometheus metrics for collection runs.
var (
	collectorRunsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "collector_runs_total",
		Help: "Total collection runs by collector and outcome",
	}, []string{"collector", "outcome"})

	collectorPagesFetchedTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "collector_pages_fetched_total",
		Help: "Total pages fetched by collector",
	}, []string{"collector"})

	collectorItemsProcessedTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "collector_items_processed_total",
		Help: "Total items handed to Process by collector",
	}, []string{"collector"})

	collectorRunDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collector_run_duration_seconds",
		Help:    "Collection run duration in seconds by collector",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"collector"})
)

// Outcome labels how a collection run ended.
type Outcome string

const (
	// OutcomeExhausted means the source reported no more pages.
	OutcomeExhausted Outcome = "exhausted"

	// OutcomeStopped means the collector's Done predicate ended the run.
	OutcomeStopped Outcome = "stopped"

	// OutcomeFailed means a fetch failed and no value was produced.
	OutcomeFailed Outcome = "failed"
)

// ErrAlreadyCollected is returned when a collector is driven a second time.
var ErrAlreadyCollected = errors.New("collector already used")

// Page is one page of results from the upstream source.
type Page[T any] struct {
	// Items in source order.
	Items []T

	// HasMore reports whether the source has further pages.
	HasMore bool

	// NextCursor is the continuation cursor for the next page, if the source has one.
	NextCursor string
}

// Collector is implemented by every concrete collection task.
//
// Fetch must not touch accumulation state. Process is called exactly once per
// fetched page, in fetch order. Finish is called exactly once, after the loop.
type Collector[T, Y any] interface {
	Fetch(ctx context.Context) (Page[T], error)
	Process(page Page[T])
	Finish() Y
}

// Stopper is an optional early-stop predicate, evaluated after each Process.
// Collectors that do not implement it run until the source is exhausted.
type Stopper interface {
	Done() bool
}

// Once is embedded by collectors to make them single-use.
type Once struct {
	used atomic.Bool
}

func (o *Once) claim() error {
	if o.used.Swap(true) {
		return ErrAlreadyCollected
	}
	return nil
}

type claimer interface {
	claim() error
}

// Option configures a single Collect call.
type Option func(*options)

type options struct {
	name   string
	logger *zerolog.Logger
}

// WithName sets the collector label used in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger overrides the logger used for the run.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// Collect drives c through one complete run and returns its finished value.
//
// The first fetch error aborts the run and is returned as-is together with
// the zero value of Y.
func Collect[T, Y any](ctx context.Context, c Collector[T, Y], opts ...Option) (Y, error) {
	var zero Y

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = fmt.Sprintf("%T", c)
	}
	logger := logging.NewLogger("collector")
	if o.logger != nil {
		logger = *o.logger
	}
	logger = logger.With().Str("collector", o.name).Logger()

	if g, ok := c.(claimer); ok {
		if err := g.claim(); err != nil {
			logger.Error().Err(err).Msg("Collector reused")
			return zero, err
		}
	}

	stopper, _ := c.(Stopper)

	start := time.Now()
	defer func() {
		collectorRunDuration.WithLabelValues(o.name).Observe(time.Since(start).Seconds())
	}()

	pages := 0
	outcome := OutcomeExhausted
	for {
		page, err := c.Fetch(ctx)
		if err != nil {
			collectorRunsTotal.WithLabelValues(o.name, string(OutcomeFailed)).Inc()
			logger.Error().
				Err(err).
				Int("page", pages+1).
				Msg("Page fetch failed")
			return zero, err
		}
		pages++
		more := page.HasMore

		collectorPagesFetchedTotal.WithLabelValues(o.name).Inc()
		collectorItemsProcessedTotal.WithLabelValues(o.name).Add(float64(len(page.Items)))
		logger.Debug().
			Int("page", pages).
			Int("items", len(page.Items)).
			Bool("has_more", more).
			Msg("Processing page")

		c.Process(page)

		if stopper != nil && stopper.Done() {
			outcome = OutcomeStopped
			break
		}
		if !more {
			break
		}
	}

	collectorRunsTotal.WithLabelValues(o.name, string(outcome)).Inc()
	logger.Info().
		Int("pages", pages).
		Str("outcome", string(outcome)).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return c.Finish(), nil
}
