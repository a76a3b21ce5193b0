package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coach-selection-workers/internal/app"
	"coach-selection-workers/internal/common/camunda"
	"coach-selection-workers/internal/common/config"
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/observability"
	"coach-selection-workers/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if problems := reg.Check(); len(problems) > 0 {
		zapLog.Fatal("activity registry is inconsistent", zap.Strings("problems", problems))
	}

	ctx := context.Background()

	var zeebe *camunda.Client
	err = app.RetryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	deps, err := app.Connect(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("backing services unavailable", zap.Error(err))
	}
	defer deps.Close()

	email, sms, err := app.NewSenders(ctx, cfg.Notifications)
	if err != nil {
		zapLog.Fatal("notification clients failed", zap.Error(err))
	}

	// Job workers complete their process instance directly, so confirmations
	// made here do not publish a start message.
	handlers := app.NewHandlers(cfg, deps, app.Options{
		Observability: obs,
		Email:         email,
		SMS:           sms,
	}, log)

	mw := camunda.Middleware{
		Registry:      reg,
		Errors:        errors.NewErrorHandler(log),
		Observability: obs,
	}

	jobHandlers := handlers.ByTaskType()

	var workers []*camunda.CamundaWorker
	for _, taskType := range reg.TaskTypes() {
		handler, ok := jobHandlers[taskType]
		if !ok {
			zapLog.Fatal("no handler for registered task type", zap.String("taskType", taskType))
		}
		w := camunda.NewWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, mw, zapLog)
		if w != nil {
			workers = append(workers, w)
		}
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := deps.Ping(pingCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err := zeebe.HealthCheck(pingCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := cfg.HTTP.HealthAddress
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
