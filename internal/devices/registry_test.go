package devices

import (
	"context"
	"errors"
	"testing"

	"github.com/quangdm/sensorlake/pkg/models"
)

func registerTestDevice(t *testing.T, registry *MemoryRegistry, deviceID string) (*models.Device, string) {
	t.Helper()

	device := &models.Device{
		DeviceID:   deviceID,
		Name:       "Test Device",
		DeviceType: "environmental",
		UserID:     7,
		Province:   "Hanoi",
		District:   "Ba Dinh",
		Ward:       "Truc Bach",
	}
	apiKey, err := registry.Register(context.Background(), device)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return device, apiKey
}

func TestRegisterGeneratesKey(t *testing.T) {
	registry := NewMemoryRegistry()
	device, apiKey := registerTestDevice(t, registry, "d1")

	if len(apiKey) != 64 {
		t.Errorf("expected 64-char hex key, got %d chars", len(apiKey))
	}
	if device.DeviceID != "D1" {
		t.Errorf("expected normalized device id D1, got %q", device.DeviceID)
	}
	if device.ID == 0 {
		t.Error("expected assigned row id")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	registry := NewMemoryRegistry()
	registerTestDevice(t, registry, "D1")

	_, err := registry.Register(context.Background(), &models.Device{DeviceID: " d1 ", Name: "dup", UserID: 7})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	registry := NewMemoryRegistry()
	device, apiKey := registerTestDevice(t, registry, "D1")
	ctx := context.Background()

	got, err := registry.Authenticate(ctx, "d1", apiKey)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.DeviceID != device.DeviceID || got.Province != "Hanoi" {
		t.Errorf("unexpected device: %+v", got)
	}

	if _, err := registry.Authenticate(ctx, "D1", "wrong-key"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for bad key, got %v", err)
	}
	if _, err := registry.Authenticate(ctx, "D9", apiKey); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for unknown device, got %v", err)
	}
}

func TestResetKeyInvalidatesOldKey(t *testing.T) {
	registry := NewMemoryRegistry()
	device, oldKey := registerTestDevice(t, registry, "D1")
	ctx := context.Background()

	newKey, err := registry.ResetKey(ctx, device.ID)
	if err != nil {
		t.Fatalf("ResetKey failed: %v", err)
	}
	if newKey == oldKey {
		t.Error("expected a fresh key")
	}

	if _, err := registry.Authenticate(ctx, "D1", oldKey); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected old key rejected, got %v", err)
	}
	if _, err := registry.Authenticate(ctx, "D1", newKey); err != nil {
		t.Errorf("expected new key accepted, got %v", err)
	}
}

func TestResetKeyMissing(t *testing.T) {
	registry := NewMemoryRegistry()

	if _, err := registry.ResetKey(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	registry := NewMemoryRegistry()
	registerTestDevice(t, registry, "D1")
	registerTestDevice(t, registry, "D2")

	devices, err := registry.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].DeviceID != "D2" || devices[1].DeviceID != "D1" {
		t.Errorf("expected newest first, got %s then %s", devices[0].DeviceID, devices[1].DeviceID)
	}
}

func TestDeleteDevice(t *testing.T) {
	registry := NewMemoryRegistry()
	registerTestDevice(t, registry, "D1")
	ctx := context.Background()

	if err := registry.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := registry.Delete(ctx, "D1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeviceTypesSeeded(t *testing.T) {
	registry := NewMemoryRegistry()

	types, err := registry.DeviceTypes(context.Background())
	if err != nil {
		t.Fatalf("DeviceTypes failed: %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("expected 3 seeded types, got %d", len(types))
	}
	if types[0].Name != "environmental" {
		t.Errorf("unexpected first type: %+v", types[0])
	}
}

func TestNewAPIKeyUnique(t *testing.T) {
	a, err := NewAPIKey()
	if err != nil {
		t.Fatalf("NewAPIKey failed: %v", err)
	}
	b, err := NewAPIKey()
	if err != nil {
		t.Fatalf("NewAPIKey failed: %v", err)
	}
	if a == b {
		t.Error("expected distinct keys")
	}
}
