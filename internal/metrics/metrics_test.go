package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disbotter/disbotter/pkg/domain"
)

func TestCollector_Hooks(t *testing.T) {
	c := New()
	h := c.Hooks()
	ctx := context.Background()

	h.OnNodeCompiled(ctx, &domain.NodeEvent{NodeID: "a", NodeType: "builtin:reply"})
	h.OnNodeCompiled(ctx, &domain.NodeEvent{NodeID: "b", NodeType: "builtin:reply"})
	h.OnUnitDone(ctx, &domain.UnitEvent{Duration: time.Millisecond})
	h.OnUnitDone(ctx, &domain.UnitEvent{Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.nodesCompiled.WithLabelValues("builtin:reply")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unitsCompiled.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unitsCompiled.WithLabelValues("error")))
}

func TestCollector_CacheHit(t *testing.T) {
	c := New()
	c.CacheHit(true)
	c.CacheHit(false)
	c.CacheHit(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	c := New()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", c.Handler())

	for range 2 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/7", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("/items/{id}", "418")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `disbotter_http_requests_total{code="418",route="/items/{id}"} 2`)
}
