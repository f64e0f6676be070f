package filters

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quangdm/sensorlake/pkg/models"
)

// MemoryStore is an in-process Store for tests and local development
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]models.SavedFilter
}

// NewMemoryStore creates an empty in-memory saved-filter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]models.SavedFilter)}
}

// Save persists a filter specification
func (m *MemoryStore) Save(ctx context.Context, userID int64, name string, filter models.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.records[m.nextID] = models.SavedFilter{
		ID:         m.nextID,
		UserID:     userID,
		FilterName: name,
		Filter:     filter,
		CreatedAt:  time.Now().UTC(),
	}
	return m.nextID, nil
}

// ListByUser returns a user's saved filters, newest first
func (m *MemoryStore) ListByUser(ctx context.Context, userID int64) ([]models.SavedFilter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []models.SavedFilter
	for _, record := range m.records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})

	return records, nil
}

// Get retrieves one saved filter
func (m *MemoryStore) Get(ctx context.Context, id int64) (*models.SavedFilter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// Delete removes one saved filter
func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
