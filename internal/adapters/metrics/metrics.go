// Package metrics exports coordinator activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
)

const namespace = "lockship"

const shutdownTimeout = 5 * time.Second

// Metrics implements ports.Metrics with Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// Registrations counts installer registrations. Label: superseded (true, false).
	Registrations *prometheus.CounterVec
	// Connected is the number of live workers.
	Connected prometheus.Gauge
	// Operations counts proxied worker operations. Labels: op, result (ok, error).
	Operations *prometheus.CounterVec
}

var _ ports.Metrics = (*Metrics)(nil)

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installer_registrations_total",
			Help:      "Installer registrations by whether they superseded a previous installer.",
		}, []string{"superseded"}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_connected",
			Help:      "Workers currently registered with the coordinator.",
		}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_operations_total",
			Help:      "Worker operations proxied by the coordinator.",
		}, []string{"op", "result"}),
	}
}

// InstallerRegistered counts a registration.
func (m *Metrics) InstallerRegistered(superseded bool) {
	label := "false"
	if superseded {
		label = "true"
	}
	m.Registrations.WithLabelValues(label).Inc()
}

// WorkersConnected sets the live worker gauge.
func (m *Metrics) WorkersConnected(n int) {
	m.Connected.Set(float64(n))
}

// WorkerOperation counts a proxied operation.
func (m *Metrics) WorkerOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on address until ctx is done.
func (m *Metrics) Serve(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", address)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen for metrics"), "address", address)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.Wrap(err, "metrics server failed")
	}
}
