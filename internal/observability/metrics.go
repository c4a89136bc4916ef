package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Metrics holds the Prometheus collectors for HTTP traffic and ticket lifecycle counters.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	errors          *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	ticketsCreated  *prometheus.CounterVec
	statusChanges   *prometheus.CounterVec
	slaBreaches     *prometheus.CounterVec
	notificationsTx *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "HTTP errors by domain error code",
		}, []string{"route", "method", "code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ticketsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_tickets_created_total",
			Help: "Tickets created by source",
		}, []string{"source"}),
		statusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_status_changes_total",
			Help: "Ticket status transitions",
		}, []string{"from", "to"}),
		slaBreaches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_sla_breaches_total",
			Help: "SLA breaches detected by kind",
		}, []string{"kind"}),
		notificationsTx: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_notifications_processed_total",
			Help: "Notification jobs taken off the queue by outcome",
		}, []string{"outcome"}),
	}
}

// RecordRequest observes one finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response by domain code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

func (m *Metrics) TicketCreated(source string) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) StatusChanged(from, to domain.TicketStatus) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) SLABreached(kind string) {
	if m == nil {
		return
	}
	m.slaBreaches.WithLabelValues(kind).Inc()
}

// NotificationProcessed counts a job handled by the notification worker.
func (m *Metrics) NotificationProcessed(outcome string) {
	if m == nil {
		return
	}
	m.notificationsTx.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus text exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
