// Package metrics exposes compiler and service metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/disbotter/disbotter/pkg/domain"
)

const namespace = "disbotter"

// Collector owns a private Prometheus registry and the compiler metrics.
type Collector struct {
	registry *prometheus.Registry

	nodesCompiled *prometheus.CounterVec
	unitsCompiled *prometheus.CounterVec
	unitDuration  prometheus.Histogram
	requests      *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// New creates a collector with its metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		nodesCompiled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_compiled_total",
				Help:      "Total number of node actions run",
			},
			[]string{"node_type"},
		),
		unitsCompiled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_compiled_total",
				Help:      "Total number of compile units by result",
			},
			[]string{"result"},
		),
		unitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "unit_duration_seconds",
				Help:      "Duration of compile units",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Program cache lookups by result",
			},
			[]string{"result"},
		),
	}
	c.registry.MustRegister(c.nodesCompiled, c.unitsCompiled, c.unitDuration, c.requests, c.cacheLookups)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Hooks returns compiler hooks that record node and unit metrics.
func (c *Collector) Hooks() domain.CompileHooks {
	return domain.CompileHooks{
		OnNodeCompiled: func(_ context.Context, e *domain.NodeEvent) {
			c.nodesCompiled.WithLabelValues(e.NodeType).Inc()
		},
		OnUnitDone: func(_ context.Context, e *domain.UnitEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			c.unitsCompiled.WithLabelValues(result).Inc()
			c.unitDuration.Observe(e.Duration.Seconds())
		},
	}
}

// CacheHit records a program cache lookup.
func (c *Collector) CacheHit(hit bool) {
	if hit {
		c.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern and status code.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
