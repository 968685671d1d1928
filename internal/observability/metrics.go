package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch-cycle outcomes recorded by ObserveFetch.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeSuperseded = "superseded"
)

// Collector bundles the Prometheus metrics shared by board-api and board-worker.
// All methods are safe on a nil receiver so packages can run without metrics in tests.
type Collector struct {
	gatherer prometheus.Gatherer

	UpstreamRequests  *prometheus.CounterVec
	UpstreamDurations *prometheus.HistogramVec
	FetchCycles       *prometheus.CounterVec
	Unresolved        *prometheus.CounterVec
	Unclassified      *prometheus.CounterVec
	Published         *prometheus.CounterVec
}

// NewCollector registers metrics against reg, defaulting to the global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightboard_upstream_requests_total",
		Help: "Requests to the remote airports/flights service, labeled by endpoint and HTTP status (0 for transport errors).",
	}, []string{"endpoint", "code"}), "flightboard_upstream_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightboard_upstream_request_duration_seconds",
		Help:    "Latency of requests to the remote service.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"}), "flightboard_upstream_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	cycles, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightboard_fetch_cycles_total",
		Help: "Completed view fetch cycles by view kind and outcome.",
	}, []string{"view", "outcome"}), "flightboard_fetch_cycles_total")
	if err != nil {
		return nil, err
	}

	unresolved, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightboard_unresolved_references_total",
		Help: "Movement location references that matched no known location.",
	}, []string{"view"}), "flightboard_unresolved_references_total")
	if err != nil {
		return nil, err
	}

	unclassified, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightboard_unclassified_states_total",
		Help: "Movements whose raw state fell into the default category.",
	}, []string{"view"}), "flightboard_unclassified_states_total")
	if err != nil {
		return nil, err
	}

	published, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightboard_board_updates_total",
		Help: "Board snapshots handled by the refresher, by result.",
	}, []string{"result"}), "flightboard_board_updates_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		UpstreamRequests:  requests,
		UpstreamDurations: durations,
		FetchCycles:       cycles,
		Unresolved:        unresolved,
		Unclassified:      unclassified,
		Published:         published,
	}, nil
}

// ObserveUpstream satisfies httpclient.Observer.
func (c *Collector) ObserveUpstream(endpoint string, statusCode int, d time.Duration) {
	if c == nil {
		return
	}
	c.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.UpstreamDurations.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (c *Collector) ObserveFetch(view, outcome string) {
	if c == nil {
		return
	}
	c.FetchCycles.WithLabelValues(view, outcome).Inc()
}

func (c *Collector) AddUnresolved(view string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Unresolved.WithLabelValues(view).Add(float64(n))
}

func (c *Collector) AddUnclassified(view string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Unclassified.WithLabelValues(view).Add(float64(n))
}

func (c *Collector) ObservePublish(result string) {
	if c == nil {
		return
	}
	c.Published.WithLabelValues(result).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
