package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "barebtc"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	staleResults  *prometheus.CounterVec
	batteries     *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	wsDropped     prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "queries_total",
			Help: "Read-only ledger queries by outcome.",
		}, []string{"query", "outcome"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "query_duration_seconds",
			Help:    "Duration of read-only ledger queries.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"query"}),
		staleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "viewstate", Name: "stale_results_total",
			Help: "Query results discarded because the session changed.",
		}, []string{"query"}),
		batteries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "viewstate", Name: "batteries_total",
			Help: "Query batteries started, by trigger.",
		}, []string{"reason"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "txn", Name: "submissions_total",
			Help: "Contract-call submissions by action and outcome.",
		}, []string{"action", "outcome"}),
		wsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ws", Name: "dropped_messages_total",
			Help: "Websocket messages dropped for slow clients.",
		}),
	}
	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		m.httpRequests, m.httpDuration,
		m.queries, m.queryDuration, m.staleResults, m.batteries,
		m.submissions, m.wsDropped,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(method, path string, status int, took time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(took.Seconds())
}

func (m *Metrics) ObserveQuery(query string, err error, took time.Duration) {
	m.queries.WithLabelValues(query, outcome(err)).Inc()
	m.queryDuration.WithLabelValues(query).Observe(took.Seconds())
}

func (m *Metrics) ObserveStale(query string) {
	m.staleResults.WithLabelValues(query).Inc()
}

func (m *Metrics) ObserveBattery(reason string) {
	m.batteries.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveSubmission(action string, err error) {
	m.submissions.WithLabelValues(action, outcome(err)).Inc()
}

func (m *Metrics) ObserveWSDrop() {
	m.wsDropped.Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
