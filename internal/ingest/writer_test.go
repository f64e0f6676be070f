package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quangdm/sensorlake/internal/blob"
	"github.com/quangdm/sensorlake/internal/dataset"
	"github.com/quangdm/sensorlake/internal/devices"
	"github.com/quangdm/sensorlake/internal/logging"
	"github.com/quangdm/sensorlake/internal/metrics"
	"github.com/quangdm/sensorlake/pkg/models"
)

func newTestWriter(t *testing.T) (*Writer, *blob.MemoryStore, *devices.MemoryRegistry, string) {
	t.Helper()

	logger, err := logging.InitLogger(logging.Config{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	registry := devices.NewMemoryRegistry()
	device := &models.Device{
		DeviceID: "D1",
		Name:     "Rooftop",
		UserID:   7,
		Province: "Hanoi",
		District: "Ba Dinh",
		Ward:     "Truc Bach",
	}
	apiKey, err := registry.Register(context.Background(), device)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	store := blob.NewMemoryStore()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewWriter(registry, store, logger, m), store, registry, apiKey
}

func TestIngestWritesOneObjectPerSensor(t *testing.T) {
	writer, store, _, apiKey := newTestWriter(t)
	ctx := context.Background()

	written, err := writer.Ingest(ctx, apiKey, "D1", "2025-01-15T10:00:00Z", map[string]models.Value{
		"temperature": models.NumberValue(21.5),
		"humidity":    models.NumberValue(60),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if written != 2 {
		t.Errorf("expected 2 objects written, got %d", written)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 stored objects, got %d", store.Len())
	}

	var keys []string
	err = store.List(ctx, "device_id=D1/sensor=temperature/", func(key string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 temperature object, got %d", len(keys))
	}
	if !strings.Contains(keys[0], "/year=2025/month=01/day=15/") {
		t.Errorf("expected date partitions in key, got %q", keys[0])
	}
	if !strings.HasSuffix(keys[0], ".json") {
		t.Errorf("expected .json suffix, got %q", keys[0])
	}
}

func TestIngestStampsDeviceLocation(t *testing.T) {
	writer, store, _, apiKey := newTestWriter(t)
	ctx := context.Background()

	if _, err := writer.Ingest(ctx, apiKey, "D1", "2025-01-15T10:00:00Z", map[string]models.Value{
		"temperature": models.NumberValue(21.5),
	}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	var body []byte
	err := store.List(ctx, "", func(key string) error {
		var getErr error
		body, getErr = store.Get(ctx, key)
		return getErr
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	reading := dataset.ParseReading(body)
	if reading == nil {
		t.Fatal("stored object did not parse as a reading")
	}
	if reading.Province != "Hanoi" || reading.District != "Ba Dinh" || reading.Ward != "Truc Bach" {
		t.Errorf("expected device location stamped, got %+v", reading)
	}
	if reading.Value.Number != 21.5 {
		t.Errorf("unexpected value: %+v", reading.Value)
	}
}

func TestIngestRejectsBadCredentials(t *testing.T) {
	writer, store, _, _ := newTestWriter(t)

	_, err := writer.Ingest(context.Background(), "bogus-key", "D1", "2025-01-15T10:00:00Z", map[string]models.Value{
		"temperature": models.NumberValue(1),
	})
	if !errors.Is(err, devices.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected nothing written, got %d objects", store.Len())
	}
}

func TestIngestRejectsBadTimestamp(t *testing.T) {
	writer, store, _, apiKey := newTestWriter(t)

	_, err := writer.Ingest(context.Background(), apiKey, "D1", "not-a-time", map[string]models.Value{
		"temperature": models.NumberValue(1),
	})
	if !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("expected ErrInvalidUpload for unparseable timestamp, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected nothing written, got %d objects", store.Len())
	}
}

func TestIngestRejectsEmptyUpload(t *testing.T) {
	writer, _, _, apiKey := newTestWriter(t)

	_, err := writer.Ingest(context.Background(), apiKey, "D1", "2025-01-15T10:00:00Z", nil)
	if !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("expected ErrInvalidUpload for empty upload, got %v", err)
	}
}

// failingPutStore fails every write with a store-unavailable error
type failingPutStore struct {
	*blob.MemoryStore
}

func (f *failingPutStore) Put(ctx context.Context, key string, data []byte) error {
	return fmt.Errorf("%w: connection refused", blob.ErrStoreUnavailable)
}

// Store write failures keep their sentinel and are never classified as
// invalid uploads.
func TestIngestStoreFailureIsNotValidationError(t *testing.T) {
	logger, _ := logging.InitLogger(logging.Config{Level: "error", Format: "json"})
	registry := devices.NewMemoryRegistry()
	device := &models.Device{DeviceID: "D1", Name: "Rooftop", UserID: 7}
	apiKey, err := registry.Register(context.Background(), device)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	store := &failingPutStore{MemoryStore: blob.NewMemoryStore()}
	writer := NewWriter(registry, store, logger, metrics.NewMetrics(prometheus.NewRegistry()))

	_, err = writer.Ingest(context.Background(), apiKey, "D1", "2025-01-15T10:00:00Z", map[string]models.Value{
		"temperature": models.NumberValue(1),
	})
	if !errors.Is(err, blob.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrInvalidUpload) {
		t.Error("store failure must not be reported as an invalid upload")
	}
}

func TestIngestedReadingsAreQueryable(t *testing.T) {
	writer, store, _, apiKey := newTestWriter(t)
	ctx := context.Background()

	logger, _ := logging.InitLogger(logging.Config{Level: "error", Format: "json"})
	builder := dataset.NewBuilder(store, logger, metrics.NewMetrics(prometheus.NewRegistry()))

	if _, err := writer.Ingest(ctx, apiKey, "d1", "2025-01-15T10:00:00Z", map[string]models.Value{
		"temperature": models.NumberValue(21.5),
	}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	result, err := builder.Build(ctx, models.Filter{DeviceID: "D1", Sensor: "temperature"}, models.GroupingFlat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected ingested reading to be queryable, got total %d", result.Total)
	}
	if result.Data[0].Province != "Hanoi" {
		t.Errorf("expected stamped location in dataset, got %+v", result.Data[0])
	}
}
