package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "securemate"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so services can be built without one in tests.
type Metrics struct {
	registry prometheus.Gatherer

	BookingsCreated  prometheus.Counter
	BookingFailures  *prometheus.CounterVec
	SignIns          *prometheus.CounterVec
	DashboardErrors  *prometheus.CounterVec
	Uploads          *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	StatusTransition *prometheus.CounterVec
}

// New registers every collector on a fresh registry, plus the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Count of bookings created.",
		}),

		BookingFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_failures_total",
			Help:      "Count of rejected or failed booking submissions by reason.",
		}, []string{"reason"}),

		SignIns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_ins_total",
			Help:      "Count of sign-in and sign-up attempts by outcome.",
		}, []string{"kind", "outcome"}),

		DashboardErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_fetch_errors_total",
			Help:      "Count of failed dashboard fetches by slice.",
		}, []string{"slice"}),

		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Count of document uploads by folder and outcome.",
		}, []string{"folder", "outcome"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		StatusTransition: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_transitions_total",
			Help:      "Count of booking status changes by target status.",
		}, []string{"status"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) BookingCreated() {
	if m != nil {
		m.BookingsCreated.Inc()
	}
}

func (m *Metrics) BookingFailed(reason string) {
	if m != nil {
		m.BookingFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) SignIn(kind string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.SignIns.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) DashboardError(slice string) {
	if m != nil {
		m.DashboardErrors.WithLabelValues(slice).Inc()
	}
}

func (m *Metrics) Upload(folder string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.Uploads.WithLabelValues(folder, outcome).Inc()
}

func (m *Metrics) Transition(status string) {
	if m != nil {
		m.StatusTransition.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
