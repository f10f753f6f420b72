package ticket

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	CreatedTotal       prometheus.Counter
	RejectedTotal      *prometheus.CounterVec
	PublishFailedTotal prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tickets_created_total", Help: "Tickets created."},
		),
		RejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tickets_rejected_total", Help: "Ticket requests rejected by validation."},
			[]string{"reason"},
		),
		PublishFailedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ticket_events_publish_failed_total", Help: "ticket.created events that could not be published."},
		),
	}
	reg.MustRegister(m.CreatedTotal, m.RejectedTotal, m.PublishFailedTotal)
	return m
}

func (m *Metrics) created() {
	if m != nil {
		m.CreatedTotal.Inc()
	}
}

func (m *Metrics) rejected(reason string) {
	if m != nil {
		m.RejectedTotal.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) publishFailed() {
	if m != nil {
		m.PublishFailedTotal.Inc()
	}
}
