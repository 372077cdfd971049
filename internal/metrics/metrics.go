// Package metrics exposes the corpus generator's run counters over
// Prometheus (spec §6 "--metrics-addr"), using client_golang the way the
// rest of the example pack depends on it.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the counters and the histogram a rulegen/traceload run updates.
type Registry struct {
	reg *prometheus.Registry

	RulesGenerated   prometheus.Counter
	SubproblemRetries prometheus.Counter
	FlowsGenerated   prometheus.Counter
	IsolationFallbacks prometheus.Counter
	RunDuration      prometheus.Histogram
}

// NewRegistry builds a fresh, independently-registered Registry (never the
// global default registry, so concurrent test runs don't collide).
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		RulesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corpusgen_rules_generated_total",
			Help: "Total number of rules committed to the output rule set.",
		}),
		SubproblemRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corpusgen_subproblem_retries_total",
			Help: "Total number of global-problem retries after a failed subproblem.",
		}),
		FlowsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corpusgen_flows_generated_total",
			Help: "Total number of trace flows written to the output trace.",
		}),
		IsolationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corpusgen_isolation_fallbacks_total",
			Help: "Total number of rule-isolation fast-mode fallbacks.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "corpusgen_run_duration_seconds",
			Help:    "Wall-clock duration of a complete rulegen/traceload run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.RulesGenerated, r.SubproblemRetries, r.FlowsGenerated, r.IsolationFallbacks, r.RunDuration)
	return r
}

// Serve starts an HTTP server exposing /metrics on addr, blocking until ctx
// is cancelled. Intended to run in its own goroutine alongside generation.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
