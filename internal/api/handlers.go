package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quangdm/sensorlake/internal/blob"
	"github.com/quangdm/sensorlake/internal/devices"
	"github.com/quangdm/sensorlake/internal/filters"
	"github.com/quangdm/sensorlake/internal/ingest"
	"github.com/quangdm/sensorlake/pkg/models"
)

// healthHandler reports service and object-store status
func (s *Server) healthHandler(c *fiber.Ctx) error {
	storeStatus := "ok"
	status := "healthy"
	code := fiber.StatusOK

	// Cheapest possible listing: stop at the first key
	err := s.store.List(c.Context(), "", func(string) error {
		return blob.ErrStopIteration
	})
	if err != nil {
		storeStatus = "unavailable"
		status = "unhealthy"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"service": "sensorlake",
		"version": "1.0.0",
		"store":   storeStatus,
	})
}

// metricsHandler handles the Prometheus metrics endpoint
func (s *Server) metricsHandler(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	var buf bytes.Buffer
	req, _ := http.NewRequest("GET", "/metrics", nil)
	rw := &responseWriter{Buffer: &buf, header: make(http.Header)}

	gatherer, ok := s.prometheusReg.(prometheus.Gatherer)
	if !ok {
		return c.Status(500).SendString("Error: registry does not implement Gatherer interface")
	}
	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	handler.ServeHTTP(rw, req)

	return c.SendString(buf.String())
}

// responseWriter is a simple implementation of http.ResponseWriter for capturing metrics
type responseWriter struct {
	*bytes.Buffer
	header http.Header
}

func (rw *responseWriter) Header() http.Header {
	return rw.header
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	// Status code is not needed for the captured body
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	return rw.Buffer.Write(data)
}

// filterFromQuery builds a Filter from the request query string
func filterFromQuery(c *fiber.Ctx) models.Filter {
	return models.Filter{
		DeviceID: c.Query("device_id"),
		Sensor:   c.Query("sensor"),
		Start:    c.Query("start"),
		End:      c.Query("end"),
		Province: c.Query("province"),
		District: c.Query("district"),
		Ward:     c.Query("ward"),
	}
}

// datasetHandler reconstructs a dataset for the query filter, optionally
// grouped per device.
func (s *Server) datasetHandler(c *fiber.Ctx) error {
	grouping := models.GroupingFlat
	if c.Query("group_by") == "device" {
		grouping = models.GroupingByDevice
	}

	result, err := s.builder.Build(c.Context(), filterFromQuery(c), grouping)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(result)
}

// filterHandler reconstructs a flat dataset wrapped in the legacy envelope
func (s *Server) filterHandler(c *fiber.Ctx) error {
	result, err := s.builder.Build(c.Context(), filterFromQuery(c), models.GroupingFlat)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"result": result,
	})
}

// mergeHandler reconstructs a dataset grouped per sensor
func (s *Server) mergeHandler(c *fiber.Ctx) error {
	result, err := s.builder.Build(c.Context(), filterFromQuery(c), models.GroupingBySensor)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"dataset": result,
	})
}

// saveFilterHandler persists a named filter specification
func (s *Server) saveFilterHandler(c *fiber.Ctx) error {
	var req SaveFilterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID == 0 || len(req.FilterJSON) == 0 {
		return badRequest(c, "user_id and filter_json are required")
	}

	filter, err := req.Filter()
	if err != nil {
		return badRequest(c, err.Error())
	}

	id, err := s.filterStore.Save(c.Context(), req.UserID, req.FilterName, filter)
	if err != nil {
		return s.respondError(c, err)
	}
	s.metrics.RecordFilterOp("save")

	return c.JSON(fiber.Map{
		"success": true,
		"id":      id,
	})
}

// listFiltersHandler returns a user's saved filters, newest first
func (s *Server) listFiltersHandler(c *fiber.Ctx) error {
	uid, err := strconv.ParseInt(c.Params("uid"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	records, err := s.filterStore.ListByUser(c.Context(), uid)
	if err != nil {
		return s.respondError(c, err)
	}
	if records == nil {
		records = []models.SavedFilter{}
	}

	return c.JSON(fiber.Map{
		"filters": records,
		"total":   len(records),
	})
}

// replayDatasetHandler re-executes a saved filter against the live population
func (s *Server) replayDatasetHandler(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid filter id")
	}

	result, err := s.replayer.ReplayDataset(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	s.metrics.RecordFilterOp("replay")

	return c.JSON(result)
}

// replayCSVHandler re-executes a saved filter and streams the CSV projection
func (s *Server) replayCSVHandler(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid filter id")
	}

	name, csv, err := s.replayer.ReplayCSV(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	s.metrics.RecordFilterOp("export_csv")

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	return c.SendString(csv)
}

// deleteFilterHandler removes one saved filter
func (s *Server) deleteFilterHandler(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid filter id")
	}

	if err := s.filterStore.Delete(c.Context(), id); err != nil {
		return s.respondError(c, err)
	}
	s.metrics.RecordFilterOp("delete")

	return c.JSON(fiber.Map{"success": true})
}

// addDeviceHandler registers a new device and returns its API key
func (s *Server) addDeviceHandler(c *fiber.Ctx) error {
	var req AddDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.DeviceID == "" || req.Name == "" {
		return badRequest(c, "device_id and name are required")
	}

	device := &models.Device{
		DeviceID:    req.DeviceID,
		Name:        req.Name,
		Description: req.Description,
		DeviceType:  req.DeviceType,
		UserID:      req.UserID,
		Province:    req.Province,
		District:    req.District,
		Ward:        req.Ward,
	}

	apiKey, err := s.registry.Register(c.Context(), device)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"device":  device,
		"api_key": apiKey,
	})
}

// listDevicesHandler returns all registered devices
func (s *Server) listDevicesHandler(c *fiber.Ctx) error {
	list, err := s.registry.List(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}
	if list == nil {
		list = []models.Device{}
	}

	return c.JSON(fiber.Map{
		"devices": list,
		"total":   len(list),
	})
}

// deviceTypesHandler returns the known device categories
func (s *Server) deviceTypesHandler(c *fiber.Ctx) error {
	types, err := s.registry.DeviceTypes(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"device_types": types})
}

// resetKeyHandler replaces a device's API key
func (s *Server) resetKeyHandler(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid device id")
	}

	apiKey, err := s.registry.ResetKey(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"api_key": apiKey,
	})
}

// deleteDeviceHandler removes a device by its device_id
func (s *Server) deleteDeviceHandler(c *fiber.Ctx) error {
	if err := s.registry.Delete(c.Context(), c.Params("device_id")); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// uploadHandler accepts an authenticated device upload and writes one bucket
// object per sensor value.
func (s *Server) uploadHandler(c *fiber.Ctx) error {
	var req UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.APIKey == "" || req.DeviceID == "" || req.Timestamp == "" {
		return badRequest(c, "api_key, device_id, and timestamp are required")
	}

	written, err := s.writer.Ingest(c.Context(), req.APIKey, req.DeviceID, req.Timestamp, req.Sensors)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidUpload) {
			return badRequest(c, err.Error())
		}
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"readings": written,
	})
}

// badRequest responds with a 400 validation error
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// respondError maps domain sentinel errors onto HTTP status codes
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, filters.ErrNotFound), errors.Is(err, devices.ErrNotFound),
		errors.Is(err, blob.ErrKeyNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, devices.ErrUnauthorized):
		code = fiber.StatusForbidden
	case errors.Is(err, devices.ErrDuplicate):
		code = fiber.StatusBadRequest
	case errors.Is(err, blob.ErrStoreUnavailable):
		code = fiber.StatusInternalServerError
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
