package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// Portal (inbound) metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	GuardRedirects  *prometheus.CounterVec

	// Backend (outbound) metrics
	BackendCalls  *prometheus.CounterVec
	ForcedLogouts prometheus.Counter

	// Auth flow metrics
	Logins *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers every metric with registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rta_portal_requests_total",
				Help: "Total number of portal requests served",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rta_portal_request_duration_seconds",
				Help:    "Portal request duration in seconds, including backend calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		GuardRedirects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rta_portal_guard_redirects_total",
				Help: "Requests the route guard redirected instead of serving",
			},
			[]string{"audience", "target"},
		),
		BackendCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rta_portal_backend_calls_total",
				Help: "Calls made to the backend API, status 0 when nothing came back",
			},
			[]string{"method", "status"},
		),
		ForcedLogouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rta_portal_forced_logouts_total",
				Help: "Sessions cleared because the backend answered 401 or no token was stored",
			},
		),
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rta_portal_logins_total",
				Help: "Login attempts by audience and outcome",
			},
			[]string{"audience", "success"},
		),
		gatherer: registry,
	}
}

// BackendCall and ForcedLogout let Metrics observe the API client

func (m *Metrics) BackendCall(method string, status int) {
	m.BackendCalls.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ForcedLogout() {
	m.ForcedLogouts.Inc()
}

func (m *Metrics) ObserveRequest(route, method string, status int, took time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) GuardRedirect(audience, target string) {
	m.GuardRedirects.WithLabelValues(audience, target).Inc()
}

func (m *Metrics) Login(audience string, success bool) {
	m.Logins.WithLabelValues(audience, strconv.FormatBool(success)).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
