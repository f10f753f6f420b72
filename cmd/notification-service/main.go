package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/k1networth/support-tickets/internal/notify"
	"github.com/k1networth/support-tickets/internal/shared/config"
	"github.com/k1networth/support-tickets/internal/shared/httpx"
	"github.com/k1networth/support-tickets/internal/shared/kafkax"
	"github.com/k1networth/support-tickets/internal/shared/logger"
)

const appName = "notification-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(appName, "unknown", "info").Error("config_error", slog.String("err", err.Error()))
		os.Exit(2)
	}
	log := logger.New(appName, cfg.AppEnv, cfg.LogLevel)

	if !cfg.Kafka.Enabled() {
		log.Error("config_error", slog.String("err", "KAFKA_BROKERS is empty"))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := kafkax.NewConsumer(kafkax.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		GroupID:     cfg.Kafka.GroupID,
		StartOffset: cfg.Kafka.StartOffset,
	})
	defer func() { _ = consumer.Close() }()

	reg := prometheus.NewRegistry()
	metrics := notify.NewMetrics(reg)

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics_listen", slog.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics_server_error", slog.String("err", err.Error()))
		}
	}()

	w := &notify.Worker{
		Log:     log,
		Source:  consumer,
		Sink:    notify.LogSink{Log: log},
		Metrics: metrics,
	}

	log.Info("consumer_start", slog.String("topic", cfg.Kafka.Topic), slog.String("group_id", cfg.Kafka.GroupID))
	if err := w.Run(ctx); err != nil {
		log.Error("consumer_failed", slog.String("err", err.Error()))
	}
	log.Info("consumer_shutdown")

	httpx.Shutdown(log, metricsSrv, cfg.ShutdownTimeout)
}
