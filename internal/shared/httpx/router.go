package httpx

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TicketHandler serves ticket creation.
type TicketHandler interface {
	CreateTicket(w http.ResponseWriter, r *http.Request)
}

type RouterDeps struct {
	Log      *slog.Logger
	Registry *prometheus.Registry
	Tickets  TicketHandler
}

func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	create := http.HandlerFunc(d.Tickets.CreateTicket)
	mux.Handle("POST /tickets", WithRoute("/tickets", create))
	// Route the function was originally hosted under.
	mux.Handle("POST /api/CreateTicket", WithRoute("/api/CreateTicket", create))

	var h http.Handler = mux
	if d.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
		h = NewMetrics(d.Registry).Middleware(h)
	}
	h = AccessLog(d.Log)(h)
	h = RequestID(h)

	return h
}
