// Package blob abstracts the object store holding one JSON object per
// reading, with prefix-scoped enumeration over a flat key population.
package blob

import (
	"context"
	"errors"
)

// Sentinel errors for blob store failures
var (
	// ErrStoreUnavailable indicates the listing or read call could not be
	// established. It must propagate: an empty enumeration is otherwise
	// indistinguishable from "no data".
	ErrStoreUnavailable = errors.New("blob store unavailable")

	// ErrKeyNotFound indicates the requested object does not exist
	ErrKeyNotFound = errors.New("object not found")

	// ErrStopIteration ends a listing early without error
	ErrStopIteration = errors.New("stop iteration")
)

// Store is the interface all object store backends implement. Each List call
// performs a fresh incremental listing; callers drive it key by key so
// buckets of unbounded size never require a bulk call.
type Store interface {
	// List walks keys under prefix, invoking fn for each. fn returning
	// ErrStopIteration ends the walk cleanly; any other error aborts it.
	List(ctx context.Context, prefix string, fn func(key string) error) error

	// Get retrieves one object body, ErrKeyNotFound when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes one object. Used only by the ingestion path; readings are
	// immutable once written.
	Put(ctx context.Context, key string, data []byte) error

	// Close releases backend resources
	Close() error
}
