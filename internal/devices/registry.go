// Package devices manages registered device metadata: the API keys gating
// ingestion and the location fields stamped onto every reading.
package devices

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/quangdm/sensorlake/pkg/models"
)

// Sentinel errors for registry failures
var (
	// ErrNotFound indicates the device does not exist
	ErrNotFound = errors.New("device not found")

	// ErrUnauthorized indicates a bad device_id/api_key pair
	ErrUnauthorized = errors.New("invalid device credentials")

	// ErrDuplicate indicates the device_id is already registered
	ErrDuplicate = errors.New("device id already registered")
)

// Registry is the device metadata store
type Registry interface {
	// Register stores a new device and returns its generated API key
	Register(ctx context.Context, device *models.Device) (string, error)

	// List returns all registered devices, newest first
	List(ctx context.Context) ([]models.Device, error)

	// Authenticate resolves a device by id and API key, ErrUnauthorized on
	// any mismatch
	Authenticate(ctx context.Context, deviceID, apiKey string) (*models.Device, error)

	// ResetKey replaces the API key of the device with the given row id
	ResetKey(ctx context.Context, id int64) (string, error)

	// Delete removes a device by its device_id, ErrNotFound when absent
	Delete(ctx context.Context, deviceID string) error

	// DeviceTypes lists the known device categories
	DeviceTypes(ctx context.Context) ([]models.DeviceType, error)

	// Close releases registry resources
	Close() error
}

// NewAPIKey generates a 32-byte hex API key
func NewAPIKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// NormalizeDeviceID canonicalizes a device identifier the way ingestion
// expects it: trimmed and upper-cased.
func NormalizeDeviceID(deviceID string) string {
	return strings.ToUpper(strings.TrimSpace(deviceID))
}

// defaultDeviceTypes seeds the known device categories
var defaultDeviceTypes = []models.DeviceType{
	{ID: 1, Name: "environmental", Description: "Temperature, humidity, and air quality sensors"},
	{ID: 2, Name: "energy", Description: "Power and energy meters"},
	{ID: 3, Name: "gateway", Description: "Aggregating gateway devices"},
}
