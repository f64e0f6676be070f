// Package filters persists named filter specifications per user and replays
// them against the dataset builder.
package filters

import (
	"context"
	"errors"

	"github.com/quangdm/sensorlake/pkg/models"
)

// ErrNotFound indicates the saved filter id does not exist
var ErrNotFound = errors.New("saved filter not found")

// Store is the saved-filter record store. Records are immutable once saved:
// created on save, read many times for replay, deleted explicitly, never
// updated in place.
type Store interface {
	// Save persists a filter specification and returns its id
	Save(ctx context.Context, userID int64, name string, filter models.Filter) (int64, error)

	// ListByUser returns a user's saved filters, newest first
	ListByUser(ctx context.Context, userID int64) ([]models.SavedFilter, error)

	// Get retrieves one saved filter, ErrNotFound when absent
	Get(ctx context.Context, id int64) (*models.SavedFilter, error)

	// Delete removes one saved filter, ErrNotFound when nothing was removed
	Delete(ctx context.Context, id int64) error

	// Close releases store resources
	Close() error
}
