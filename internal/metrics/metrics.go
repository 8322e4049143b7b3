package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Connections    prometheus.Gauge
	Deliveries     *prometheus.CounterVec
	PendingFlushed prometheus.Counter
	Created        *prometheus.CounterVec
	Emails         *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_ws_active_connections",
			Help: "Active notification websocket connections",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Live delivery attempts by outcome",
		}, []string{"status"}),
		PendingFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_pending_flushed_total",
			Help: "Queued payloads flushed on connect",
		}),
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_created_total",
			Help: "Notifications persisted by type",
		}, []string{"type"}),
		Emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_emails_total",
			Help: "Email side-channel results",
		}, []string{"result"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Connections, m.Deliveries, m.PendingFlushed, m.Created, m.Emails)
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Metrics) Delivery(status string) {
	if m != nil {
		m.Deliveries.WithLabelValues(status).Inc()
	}
}

// Broadcast records one fan-out: sent channels took the payload, failed ones did not.
func (m *Metrics) Broadcast(sent, failed int) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues("sent").Add(float64(sent))
	m.Deliveries.WithLabelValues("dropped").Add(float64(failed))
}

func (m *Metrics) Flushed(n int) {
	if m != nil && n > 0 {
		m.PendingFlushed.Add(float64(n))
	}
}

func (m *Metrics) NotificationCreated(kind string) {
	if m != nil {
		m.Created.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Email(result string) {
	if m != nil {
		m.Emails.WithLabelValues(result).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
