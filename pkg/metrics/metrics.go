// Package metrics exposes the counters and histograms a running node
// reports over Prometheus's text exposition format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument a node increments during its ABCI
// lifecycle.
type Metrics struct {
	TxAdmitted      prometheus.Counter
	TxRejected      prometheus.Counter
	TxDelivered     prometheus.Counter
	TxFailed        prometheus.Counter
	CommitLatency   prometheus.Histogram
	CommittedHeight prometheus.Gauge
}

// New registers every instrument against a fresh registry and returns the
// bundle. Callers that need to run more than one node in a single process
// (as package testkit does in tests) should each call New independently.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		TxAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapido_tx_admitted_total",
			Help: "Transactions admitted by CheckTx.",
		}),
		TxRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapido_tx_rejected_total",
			Help: "Transactions rejected by CheckTx.",
		}),
		TxDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapido_tx_delivered_total",
			Help: "Transactions whose DeliverTx execution succeeded.",
		}),
		TxFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapido_tx_failed_total",
			Help: "Transactions whose DeliverTx execution failed.",
		}),
		CommitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rapido_commit_latency_seconds",
			Help:    "Time spent in Commit, including the state aggregator hash computation.",
			Buckets: prometheus.DefBuckets,
		}),
		CommittedHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rapido_committed_height",
			Help: "Height of the last block this node committed.",
		}),
	}, reg
}

// ObserveCommit records how long a Commit call took.
func (m *Metrics) ObserveCommit(start time.Time) {
	m.CommitLatency.Observe(time.Since(start).Seconds())
}

// Server serves a registry's metrics over HTTP at /metrics.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a metrics Server bound to addr, serving reg.
func NewServer(addr string, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Serve blocks serving metrics until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics: serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
