package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wealth_manager/internal/api"
	"wealth_manager/internal/app"
	"wealth_manager/internal/config"
	"wealth_manager/internal/service"
	"wealth_manager/internal/store"
	"wealth_manager/pkg/metrics"
	"wealth_manager/pkg/validator"
)

const (
	appName = "wealth_manager"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("storage", cfg.StorageDriver))

	ctx := context.Background()

	repo, closeRepo, err := app.OpenRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepo()

	metricsCollector := metrics.NewMetricsCollector(logger)
	notificationService := setupNotificationService(cfg, logger)

	financialStore, err := app.NewStore(ctx, cfg, repo, metricsCollector, logger,
		store.WithMetrics(metricsCollector),
		store.WithNotifier(notificationService))
	if err != nil {
		logger.Error("Failed to load financial data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	retentionService := service.NewRetentionService(financialStore, cfg.RetentionPeriod(), logger)
	if err := retentionService.Start(cfg.RetentionSchedule); err != nil {
		logger.Error("Failed to schedule retention", slog.String("error", err.Error()))
		os.Exit(1)
	}

	apiHandler := api.NewAPIHandler(financialStore, validator.NewEntityValidator(), logger)
	metricsServer := metricsCollector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(cfg.Port, apiHandler, logger)
	waitForShutdown(logger, httpServer, metricsServer, metricsCollector, notificationService, retentionService, financialStore)
	logger.Info("Application shutdown complete")
}

func setupLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func setupNotificationService(cfg *config.Config, logger *slog.Logger) *service.NotificationService {
	var emailService service.EmailService
	if cfg.SMTPHost != "" {
		emailService = service.NewSMTPEmailService(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPassword,
			cfg.SenderEmail,
			logger,
		)
	}

	return service.NewNotificationService(
		emailService,
		cfg.NotifyEmail,
		cfg.NotificationWorkers,
		100,
		logger,
	)
}

func startHTTPServer(port string, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, appName)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	metricsCollector *metrics.MetricsCollector,
	notificationService *service.NotificationService,
	retentionService *service.RetentionService,
	financialStore *store.FinancialStore,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := retentionService.Shutdown(ctx); err != nil {
		logger.Error("Retention service shutdown failed", slog.String("error", err.Error()))
	}

	if err := financialStore.Close(ctx); err != nil {
		logger.Error("Final snapshot save failed", slog.String("error", err.Error()))
	}

	if err := notificationService.Shutdown(ctx); err != nil {
		logger.Error("Notification service shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsCollector.Shutdown(ctx, metricsServer); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
}
