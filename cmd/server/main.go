// SensorLake server ingests IoT sensor readings into a partitioned content
// bucket and reconstructs filtered datasets, saved-filter replays, and CSV
// exports on demand.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quangdm/sensorlake/internal/api"
	"github.com/quangdm/sensorlake/internal/blob"
	"github.com/quangdm/sensorlake/internal/config"
	"github.com/quangdm/sensorlake/internal/database"
	"github.com/quangdm/sensorlake/internal/devices"
	"github.com/quangdm/sensorlake/internal/filters"
	"github.com/quangdm/sensorlake/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.InitLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		Fields: cfg.Logging.Fields,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	registry := prometheus.NewRegistry()
	ctx := context.Background()

	// Object store backend
	store, err := blob.NewStore(ctx, &cfg.Blob, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize object store")
	}
	defer store.Close()

	// Record stores: saved filters and the device registry share a backend
	var filterStore filters.Store
	var deviceRegistry devices.Registry

	switch cfg.Database.Backend {
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Database.Postgres.ConnString())
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		filterStore, err = filters.NewPostgresStore(ctx, pool, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize saved-filter store")
		}
		deviceRegistry, err = devices.NewPostgresRegistry(ctx, pool, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize device registry")
		}

		logger.WithFields(map[string]interface{}{
			"host":     cfg.Database.Postgres.Host,
			"database": cfg.Database.Postgres.Database,
		}).Info("PostgreSQL record store enabled")

	default:
		filterStore = filters.NewMemoryStore()
		deviceRegistry = devices.NewMemoryRegistry()
		logger.Info("Running with in-memory record stores (data will be lost on restart)")
	}
	defer filterStore.Close()
	defer deviceRegistry.Close()

	server := api.NewServer(cfg, logger, registry, store, filterStore, deviceRegistry)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.Info("SensorLake started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down SensorLake...")

	if err := server.Stop(); err != nil {
		logger.WithError(err).Error("Failed to shutdown server gracefully")
	}

	logger.Info("SensorLake stopped")
}
