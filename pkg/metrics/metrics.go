// Package metrics is the reference for the Prometheus metrics exported by
// notion-picker and provides a text dump for one-shot command runs.
// Metrics are defined in their respective packages (collector, notion) and
// registered through Registry.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry is the registerer every package passes to promauto.With.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the default Prometheus gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Prefixes of the metric families owned by this module.
var Prefixes = []string{"collector_", "notion_"}

// WriteText gathers from g and writes every family whose name starts with
// one of prefixes in the Prometheus text exposition format. With no
// prefixes every family is written.
func WriteText(w io.Writer, g prometheus.Gatherer, prefixes ...string) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		if !hasPrefix(mf.GetName(), prefixes) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func hasPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Metrics Documentation
//
// Collector Metrics (pkg/collector):
//   - collector_runs_total{collector, outcome} (Counter): Runs by outcome (exhausted, stopped, failed)
//   - collector_pages_fetched_total{collector} (Counter): Pages fetched
//   - collector_items_processed_total{collector} (Counter): Items handed to Process
//   - collector_run_duration_seconds{collector} (Histogram): Run duration
//
// Request Metrics (pkg/notion):
//   - notion_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - notion_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - notion_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Example Prometheus Queries:
//
//   # Early-stop ratio of the database search
//   sum(rate(collector_runs_total{collector="database_by_name",outcome="stopped"}[1h])) /
//   sum(rate(collector_runs_total{collector="database_by_name"}[1h]))
//
//   # Pages per run
//   rate(collector_pages_fetched_total[1h]) / sum by (collector) (rate(collector_runs_total[1h]))
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(notion_request_duration_seconds_bucket[5m]))
