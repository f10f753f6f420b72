package notify

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	ProcessedTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "notify_processed_total", Help: "Processed events."},
			[]string{"event_type", "status"},
		),
	}
	reg.MustRegister(m.ProcessedTotal)
	return m
}
