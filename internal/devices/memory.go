package devices

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quangdm/sensorlake/pkg/models"
)

// MemoryRegistry is an in-memory Registry for tests and single-node setups
type MemoryRegistry struct {
	mu      sync.RWMutex
	nextID  int64
	devices map[string]*models.Device // keyed by normalized device_id
	types   []models.DeviceType
}

// NewMemoryRegistry creates an empty in-memory registry with the default
// device types seeded.
func NewMemoryRegistry() *MemoryRegistry {
	types := make([]models.DeviceType, len(defaultDeviceTypes))
	copy(types, defaultDeviceTypes)

	return &MemoryRegistry{
		nextID:  1,
		devices: make(map[string]*models.Device),
		types:   types,
	}
}

// Register stores a new device and returns its generated API key
func (mr *MemoryRegistry) Register(ctx context.Context, device *models.Device) (string, error) {
	apiKey, err := NewAPIKey()
	if err != nil {
		return "", err
	}

	mr.mu.Lock()
	defer mr.mu.Unlock()

	device.DeviceID = NormalizeDeviceID(device.DeviceID)
	if _, exists := mr.devices[device.DeviceID]; exists {
		return "", ErrDuplicate
	}

	now := time.Now().UTC()
	device.ID = mr.nextID
	device.APIKey = apiKey
	device.CreatedAt = now
	device.UpdatedAt = now
	mr.nextID++

	stored := *device
	mr.devices[device.DeviceID] = &stored

	return apiKey, nil
}

// List returns all registered devices, newest first
func (mr *MemoryRegistry) List(ctx context.Context) ([]models.Device, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	devices := make([]models.Device, 0, len(mr.devices))
	for _, d := range mr.devices {
		devices = append(devices, *d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ID > devices[j].ID
	})

	return devices, nil
}

// Authenticate resolves a device by id and API key
func (mr *MemoryRegistry) Authenticate(ctx context.Context, deviceID, apiKey string) (*models.Device, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	d, ok := mr.devices[NormalizeDeviceID(deviceID)]
	if !ok || d.APIKey != apiKey {
		return nil, ErrUnauthorized
	}

	result := *d
	return &result, nil
}

// ResetKey replaces the API key of the device with the given row id
func (mr *MemoryRegistry) ResetKey(ctx context.Context, id int64) (string, error) {
	apiKey, err := NewAPIKey()
	if err != nil {
		return "", err
	}

	mr.mu.Lock()
	defer mr.mu.Unlock()

	for _, d := range mr.devices {
		if d.ID == id {
			d.APIKey = apiKey
			d.UpdatedAt = time.Now().UTC()
			return apiKey, nil
		}
	}

	return "", ErrNotFound
}

// Delete removes a device by its device_id
func (mr *MemoryRegistry) Delete(ctx context.Context, deviceID string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	key := NormalizeDeviceID(deviceID)
	if _, ok := mr.devices[key]; !ok {
		return ErrNotFound
	}
	delete(mr.devices, key)

	return nil
}

// DeviceTypes lists the known device categories
func (mr *MemoryRegistry) DeviceTypes(ctx context.Context) ([]models.DeviceType, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	types := make([]models.DeviceType, len(mr.types))
	copy(types, mr.types)

	return types, nil
}

// Close is a no-op for the in-memory registry
func (mr *MemoryRegistry) Close() error {
	return nil
}
