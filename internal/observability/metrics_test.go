package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsUpstreamAndFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveUpstream("movements", 200, 20*time.Millisecond)
	c.ObserveUpstream("movements", 0, time.Millisecond)
	c.ObserveFetch("board", OutcomeFailure)
	c.AddUnresolved("movements", 2)
	c.AddUnclassified("board", 0)
	c.ObservePublish("published")

	require.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("movements", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("movements", "0")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.FetchCycles.WithLabelValues("board", "failure")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.Unresolved.WithLabelValues("movements")))
	require.Equal(t, 0, testutil.CollectAndCount(c.Unclassified))
	require.Equal(t, 1.0, testutil.ToFloat64(c.Published.WithLabelValues("published")))
}

func TestCollector_AlreadyRegisteredIsReused(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	require.NoError(t, err)
	b, err := NewCollector(reg)
	require.NoError(t, err)
	require.Same(t, a.FetchCycles, b.FetchCycles)
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	require.NotPanics(t, func() {
		c.ObserveUpstream("x", 200, time.Second)
		c.ObserveFetch("x", OutcomeSuccess)
		c.AddUnresolved("x", 1)
		c.AddUnclassified("x", 1)
		c.ObservePublish("x")
	})
}

func TestCollector_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.ObserveFetch("locations", OutcomeSuccess)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), `flightboard_fetch_cycles_total{outcome="success",view="locations"} 1`))
}
