package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the clients service.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ClientsRegistered prometheus.Counter
	PublishFailures   prometheus.Counter
	EventsRelayed     *prometheus.CounterVec
}

// New creates the metrics and registers them on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clients_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clients_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route"}),
		ClientsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "clients_registered_total",
			Help: "Total number of clients registered",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clients_event_publish_failures_total",
			Help: "Total number of client creation events that could not be published",
		}),
		EventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clients_cdc_events_relayed_total",
			Help: "Total number of CDC client events relayed by type",
		}, []string{"type"}),
	}
}

// ObserveRequest records a served HTTP request.
// Call with time.Now() taken at the start of the request.
func (m *Metrics) ObserveRequest(method, route string, code int, start time.Time) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// IncrementClientsRegistered records a successful registration.
func (m *Metrics) IncrementClientsRegistered() {
	m.ClientsRegistered.Inc()
}

// IncrementPublishFailures records a creation event that was not delivered.
func (m *Metrics) IncrementPublishFailures() {
	m.PublishFailures.Inc()
}

// IncrementEventsRelayed records a CDC event forwarded by the worker.
func (m *Metrics) IncrementEventsRelayed(eventType string) {
	m.EventsRelayed.WithLabelValues(eventType).Inc()
}
