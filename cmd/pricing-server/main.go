// cmd/pricing-server/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"vehicle-pricing/internal/common/camunda"
	"vehicle-pricing/internal/common/config"
	"vehicle-pricing/internal/common/database"
	"vehicle-pricing/internal/common/logger"
	"vehicle-pricing/internal/common/observability"
	"vehicle-pricing/internal/common/validation"
	"vehicle-pricing/internal/encoder"
	"vehicle-pricing/internal/predictor"
	"vehicle-pricing/internal/server"
	"vehicle-pricing/internal/service"

	pvp "vehicle-pricing/internal/workers/pricing/predict-vehicle-price"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting vehicle pricing service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("modelSource", cfg.Model.Source),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.TraceSampleRatio, prometheus.DefaultRegisterer, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Model ---
	var db *sql.DB
	if cfg.Model.Source == config.ModelSourcePostgres {
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(ctx, cfg.Database.Postgres, config.GetDuration(cfg.Model.Timeout))
			return err
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Error("postgres unavailable, serving without a model", zap.Error(err))
		} else {
			defer pg.Close()
			db = pg.DB
		}
	}

	loaded, loadErr := predictor.Load(ctx, cfg.Model, db, log)

	// --- Prediction cache ---
	if loaded != nil && cfg.Cache.Enabled {
		rdb, err := database.NewRedis(ctx, cfg.Database.Redis)
		if err != nil {
			zapLog.Warn("redis unavailable, prediction cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			loaded.Predictor = predictor.NewCachedPredictor(
				loaded.Predictor, rdb.Client, config.GetDuration(cfg.Cache.TTL), loaded.Info.Version, log)
			zapLog.Info("prediction cache enabled", zap.Int("ttl_ms", cfg.Cache.TTL))
		}
	}

	validator, err := validation.NewVehicleValidator()
	if err != nil {
		zapLog.Fatal("vehicle schema failed to compile", zap.Error(err))
	}

	svc := service.New(service.Deps{
		Encoder:       encoder.New(encoder.WithReferenceYear(cfg.Encoder.ReferenceYear)),
		Validator:     validator,
		Model:         loaded,
		LoadErr:       loadErr,
		Observability: obs,
		Logger:        log,
	})

	// --- Job worker ---
	var priceWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		var zc *camunda.Client
		err := retryWithBackoff(func() error {
			var err error
			zc, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zc.Close()

		workerCfg := pvp.CreateConfigFromAppConfig(cfg)
		if err := workerCfg.Validate(); err != nil {
			zapLog.Fatal("invalid worker config", zap.String("taskType", pvp.TaskType), zap.Error(err))
		}
		handler := pvp.NewHandler(workerCfg, svc, log)
		priceWorker = camunda.StartWorker(zc.GetClient(), pvp.TaskType, config.GetWorkerConfig(cfg, pvp.TaskType), handler, log)
	}

	// --- HTTP API ---
	srv := server.New(cfg.Server, svc, prometheus.DefaultGatherer, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server stopped", zap.Error(err))
		}
	}

	// --- Graceful Shutdown ---
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown failed", zap.Error(err))
	}
	priceWorker.Stop()
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Vehicle pricing service stopped")
}
