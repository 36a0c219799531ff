package connection

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the backend request metrics
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec
}

// NewMetrics registers the backend metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lazyes_backend_requests_total",
				Help: "Total number of requests sent to Elasticsearch",
			},
			[]string{"connection", "method", "endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lazyes_backend_request_duration_seconds",
				Help:    "Elasticsearch request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"connection", "endpoint"},
		),
		RequestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lazyes_backend_request_errors_total",
				Help: "Total number of requests that got no response",
			},
			[]string{"connection", "endpoint"},
		),
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// InstrumentRoundTripper records every request made through next under
// the given connection alias. A nil Metrics returns next unchanged.
func (m *Metrics) InstrumentRoundTripper(alias string, next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		endpoint := endpointOf(req.URL.Path)
		start := time.Now()

		res, err := next.RoundTrip(req)

		m.RequestDuration.WithLabelValues(alias, endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			m.RequestErrors.WithLabelValues(alias, endpoint).Inc()
			return nil, err
		}
		m.RequestsTotal.WithLabelValues(alias, req.Method, endpoint, strconv.Itoa(res.StatusCode)).Inc()
		return res, nil
	})
}

// endpointOf reduces a request path to its API name so index names and
// document ids do not end up as label values.
func endpointOf(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "/"
	}
	if segments[0] == "_cat" && len(segments) > 1 {
		return "_cat/" + segments[1]
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if strings.HasPrefix(segments[i], "_") && segments[i] != "_doc" {
			return segments[i]
		}
	}
	return "document"
}
