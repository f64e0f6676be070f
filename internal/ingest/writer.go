// Package ingest writes device readings into the content bucket, one
// immutable object per (device, sensor, reading).
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quangdm/sensorlake/internal/blob"
	"github.com/quangdm/sensorlake/internal/dataset"
	"github.com/quangdm/sensorlake/internal/devices"
	"github.com/quangdm/sensorlake/internal/logging"
	"github.com/quangdm/sensorlake/internal/metrics"
	"github.com/quangdm/sensorlake/pkg/models"
)

// ErrInvalidUpload marks uploads rejected before any object is written,
// distinguishing caller mistakes from store failures.
var ErrInvalidUpload = errors.New("invalid upload")

// Writer persists authenticated device uploads as partitioned bucket objects
type Writer struct {
	registry devices.Registry
	store    blob.Store
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewWriter creates an ingestion writer
func NewWriter(registry devices.Registry, store blob.Store, logger *logging.Logger, m *metrics.Metrics) *Writer {
	return &Writer{
		registry: registry,
		store:    store,
		logger:   logger.WithComponent(logging.ComponentIngest),
		metrics:  m,
	}
}

// Ingest authenticates the upload and writes one object per sensor value.
// The timestamp must parse with one of the accepted formats; the device's
// location fields are stamped onto every stored reading. It returns the
// number of objects written.
func (w *Writer) Ingest(ctx context.Context, apiKey, deviceID, timestamp string, sensors map[string]models.Value) (int, error) {
	device, err := w.registry.Authenticate(ctx, deviceID, apiKey)
	if err != nil {
		return 0, err
	}

	ts, err := models.ParseTimestamp(timestamp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	if len(sensors) == 0 {
		return 0, fmt.Errorf("%w: no sensor values", ErrInvalidUpload)
	}

	written := 0
	for sensor, value := range sensors {
		reading := models.Reading{
			DeviceID:  device.DeviceID,
			Sensor:    sensor,
			Timestamp: timestamp,
			Value:     value,
			Province:  device.Province,
			District:  device.District,
			Ward:      device.Ward,
		}

		body, err := json.Marshal(reading)
		if err != nil {
			return written, fmt.Errorf("failed to encode reading: %w", err)
		}

		name := fmt.Sprintf("%d-%s.json", ts.UnixMilli(), uuid.NewString())
		key := dataset.ObjectKey(device.DeviceID, sensor, ts, name)

		if err := w.store.Put(ctx, key, body); err != nil {
			return written, fmt.Errorf("failed to store reading %s: %w", key, err)
		}

		w.metrics.RecordIngested(sensor)
		written++
	}

	w.logger.WithEvent(logging.EventIngestComplete).WithFields(map[string]interface{}{
		"device_id": device.DeviceID,
		"readings":  written,
	}).Debug("Upload stored")

	return written, nil
}
