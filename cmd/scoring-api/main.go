package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coach-selection-workers/internal/api"
	"coach-selection-workers/internal/app"
	"coach-selection-workers/internal/common/camunda"
	"coach-selection-workers/internal/common/config"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/observability"

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

	if err := cfg.Auth.Validate(); err != nil {
		zapLog.Fatal("invalid auth config", zap.Error(err))
	}

	obs := observability.New("scoring-api")
	defer obs.Shutdown()

	ctx := context.Background()
	deps, err := app.Connect(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("backing services unavailable", zap.Error(err))
	}
	defer deps.Close()

	opts := app.Options{Observability: obs}

	// Confirmations made through the API start the notification workflow by
	// message. Without a gateway the API still serves every route.
	zeebe, err := camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Warn("zeebe gateway unavailable, selection messages disabled", zap.Error(err))
	} else {
		defer zeebe.Close()
		opts.Publisher = zeebe
	}

	handlers := app.NewHandlers(cfg, deps, opts, log)
	server := api.New(*cfg, api.Operations{
		Calculate:       handlers.Calculate,
		Finalize:        handlers.Finalize,
		Recommendations: handlers.Recommendations,
		Confirm:         handlers.Confirm,
		Survey:          handlers.Survey,
		Criteria:        handlers.Criteria,
	}, deps.Repo, deps.Cache, log)

	addr := cfg.HTTP.Address
	if addr == "" {
		addr = ":3000"
	}
	go func() {
		if err := server.Listen(addr); err != nil {
			zapLog.Fatal("scoring api stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping scoring api", zap.Error(err))
	}
	zapLog.Info("Scoring API stopped")
}
