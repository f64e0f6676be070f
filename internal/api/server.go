// Package api exposes the HTTP surface: dataset queries, saved-filter CRUD
// and replay, device management, and device uploads.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quangdm/sensorlake/internal/blob"
	"github.com/quangdm/sensorlake/internal/config"
	"github.com/quangdm/sensorlake/internal/dataset"
	"github.com/quangdm/sensorlake/internal/devices"
	"github.com/quangdm/sensorlake/internal/filters"
	"github.com/quangdm/sensorlake/internal/ingest"
	"github.com/quangdm/sensorlake/internal/logging"
	"github.com/quangdm/sensorlake/internal/metrics"
)

// Server represents the API server
type Server struct {
	app           *fiber.App
	config        *config.Config
	logger        *logging.Logger
	metrics       *metrics.Metrics
	store         blob.Store
	builder       *dataset.Builder
	filterStore   filters.Store
	replayer      *filters.Replayer
	registry      devices.Registry
	writer        *ingest.Writer
	prometheusReg prometheus.Registerer
}

// NewServer creates a new API server wired to the given stores
func NewServer(cfg *config.Config, logger *logging.Logger, prometheusReg prometheus.Registerer,
	store blob.Store, filterStore filters.Store, registry devices.Registry) *Server {

	metricsInstance := metrics.NewMetrics(prometheusReg)
	builder := dataset.NewBuilder(store, logger, metricsInstance)

	app := fiber.New(fiber.Config{
		AppName:      "SensorLake v1.0",
		ServerHeader: "SensorLake",
		ErrorHandler: errorHandler(logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:           app,
		config:        cfg,
		logger:        logger,
		metrics:       metricsInstance,
		store:         store,
		builder:       builder,
		filterStore:   filterStore,
		replayer:      filters.NewReplayer(filterStore, builder),
		registry:      registry,
		writer:        ingest.NewWriter(registry, store, logger, metricsInstance),
		prometheusReg: prometheusReg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Fiber middleware
func (s *Server) setupMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} ${path}\n",
	}))

	corsOrigins := "*"
	if len(s.config.Server.CORSOrigins) > 0 {
		corsOrigins = strings.Join(s.config.Server.CORSOrigins, ",")
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.app.Get("/metrics", s.metricsHandler)

	api := s.app.Group("/api")

	api.Get("/health", s.healthHandler)

	// Dataset reconstruction
	api.Get("/dataset", s.datasetHandler)
	api.Get("/filter", s.filterHandler)
	api.Get("/merge", s.mergeHandler)

	// Saved export filters
	api.Post("/export_filters", s.saveFilterHandler)
	api.Get("/export_filters/user/:uid", s.listFiltersHandler)
	api.Get("/export_filters/:id/dataset", s.replayDatasetHandler)
	api.Get("/export_filters/:id/export_csv", s.replayCSVHandler)
	api.Delete("/export_filters/:id", s.deleteFilterHandler)

	// Device management
	api.Post("/add-device", s.addDeviceHandler)
	api.Get("/devices", s.listDevicesHandler)
	api.Get("/device-types", s.deviceTypesHandler)
	api.Post("/devices/:id/reset-key", s.resetKeyHandler)
	api.Delete("/devices/:device_id", s.deleteDeviceHandler)

	// Device ingestion
	api.Post("/device/upload", s.uploadHandler)
}

// Start starts the server
func (s *Server) Start() error {
	address := s.config.Server.Host + ":" + s.config.Server.Port

	s.logger.WithComponent(logging.ComponentAPI).
		WithEvent(logging.EventServerStart).
		WithFields(map[string]interface{}{
			"address": address,
		}).
		Info("Starting HTTP server")

	return s.app.Listen(address)
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	s.logger.WithComponent(logging.ComponentAPI).
		WithEvent(logging.EventServerStop).
		Info("Stopping HTTP server")
	return s.app.Shutdown()
}

// errorHandler handles Fiber errors
func errorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.WithComponent(logging.ComponentAPI).
			WithFields(map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"status": code,
			}).
			WithError(err).
			Error("HTTP request error")

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
}
