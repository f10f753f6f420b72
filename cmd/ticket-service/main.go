package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/k1networth/support-tickets/internal/shared/config"
	"github.com/k1networth/support-tickets/internal/shared/httpx"
	"github.com/k1networth/support-tickets/internal/shared/kafkax"
	"github.com/k1networth/support-tickets/internal/shared/logger"
	"github.com/k1networth/support-tickets/internal/ticket"
)

const appName = "ticket-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(appName, "unknown", "info").Error("config_error", slog.String("err", err.Error()))
		os.Exit(2)
	}
	log := logger.New(appName, cfg.AppEnv, cfg.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var publisher ticket.Publisher = ticket.NopPublisher{}
	if cfg.Kafka.Enabled() {
		producer := kafkax.NewProducer(kafkax.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			ClientID:     appName,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error("kafka_producer_close_failed", slog.String("err", err.Error()))
			}
		}()
		publisher = ticket.NewKafkaPublisher(producer, cfg.Kafka.WriteTimeout)
		log.Info("ticket_events_enabled", slog.String("topic", cfg.Kafka.Topic))
	}

	ticketH := &ticket.Handler{
		Log:          log,
		Events:       publisher,
		Metrics:      ticket.NewMetrics(reg),
		MaxBodyBytes: cfg.MaxBodyBytes,
	}

	handler := httpx.NewRouter(httpx.RouterDeps{
		Log:      log,
		Registry: reg,
		Tickets:  ticketH,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("http_listen", slog.String("addr", srv.Addr))

	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Error("http_server_error", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}()

	httpx.WaitAndShutdown(log, srv, cfg.ShutdownTimeout)
}
