package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	httpapi "github.com/i474232898/noaa-tides/internal/api/http"
	"github.com/i474232898/noaa-tides/internal/config"
	"github.com/i474232898/noaa-tides/internal/mqtt"
	"github.com/i474232898/noaa-tides/internal/noaa"
	"github.com/i474232898/noaa-tides/internal/noaa/providers"
	"github.com/i474232898/noaa-tides/internal/observability"
	"github.com/i474232898/noaa-tides/internal/scheduler"
	"github.com/i474232898/noaa-tides/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(logger)

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound NOAA calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Providers with resilience (backoff + circuit breaker).
	deps := noaa.Dependencies{
		DataGetter: providers.NewCoopsProvider(httpClient, cfg.CoopsBaseURL),
		Feed:       providers.NewNDBCProvider(httpClient, cfg.NDBCBaseURL),
		Clock:      clock,
		Logger:     logger,
	}

	sensors := make([]noaa.Sensor, 0, len(cfg.Sensors))
	for _, sc := range cfg.Sensors {
		sensor, err := noaa.NewSensor(sc.Kind, noaa.SensorConfig{
			Name:     sc.Name,
			Station:  sc.Station,
			Timezone: cfg.TimeZone,
			Units:    cfg.Units,
			Location: cfg.DisplayLocation,
		}, deps)
		if err != nil {
			logger.Error("failed to create sensor", "kind", string(sc.Kind), "station", sc.Station, "error", err)
			os.Exit(1)
		}
		sensors = append(sensors, sensor)
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStoreWithClock(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)

	opts := noaa.ServiceOptions{
		Metrics: metrics,
		Clock:   clock,
		Logger:  logger,
	}

	if cfg.MQTTEnabled() {
		publisher := mqtt.NewPublisher(mqtt.Config{
			Broker:      cfg.MQTTBroker,
			Port:        cfg.MQTTPort,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
		}, logger)

		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		// The client keeps retrying in the background; publishing resumes once connected.
		if err := publisher.Connect(connectCtx); err != nil {
			logger.Warn("mqtt broker not reachable yet", "broker", cfg.MQTTBroker, "error", err)
		}
		cancel()
		defer publisher.Disconnect()

		opts.Publisher = publisher
	}

	service, err := noaa.NewService(memStore, sensors, opts)
	if err != nil {
		logger.Error("failed to create sensor service", "error", err)
		os.Exit(1)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), cfg.RefreshTimeout)
	service.Initialize(initCtx)
	cancelInit()

	sched := scheduler.New(scheduler.Config{
		Interval: cfg.RefreshInterval,
		Cron:     cfg.RefreshCron,
		Timeout:  cfg.RefreshTimeout,
	}, service, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, nil, logger)

	go func() {
		logger.Info("http server listening", "port", cfg.Port, "sensors", len(sensors))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
