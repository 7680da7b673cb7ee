// Package metrics exposes Prometheus collectors for the inventory workflow and
// the HTTP API.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector registered on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	Inventory *InventoryMetrics
	HTTP      *HTTPMetrics
}

// New creates a registry with runtime collectors plus the partscope collectors.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}

	inventoryMetrics, err := NewInventoryMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory metrics: %w", err)
	}
	httpMetrics, err := NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}
	return &Metrics{registry: registry, Inventory: inventoryMetrics, HTTP: httpMetrics}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format for the registry.
func (m *Metrics) Handler(logger *slog.Logger) http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(loggerHandler(logger), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

func loggerHandler(logger *slog.Logger) slog.Handler {
	if logger == nil {
		return slog.Default().Handler()
	}
	return logger.Handler()
}
