package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/quangdm/sensorlake/internal/logging"
)

// BadgerStore is an embedded object store backed by BadgerDB. Object keys
// are stored verbatim, so the partitioned key hierarchy maps directly onto
// badger's ordered keyspace and prefix iterators.
type BadgerStore struct {
	db     *badger.DB
	logger *logging.Logger
}

// NewBadgerStore opens (or creates) a BadgerDB-backed object store
func NewBadgerStore(path string, logger *logging.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.WithComponent(logging.ComponentBlob).
		WithFields(map[string]interface{}{"path": path}).
		Info("BadgerDB object store initialized")

	return &BadgerStore{db: db, logger: logger}, nil
}

// List walks keys under prefix in key order. Key-only iteration; values are
// fetched lazily by Get.
func (bs *BadgerStore) List(ctx context.Context, prefix string, fn func(key string) error) error {
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(string(it.Item().KeyCopy(nil))); err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, ErrStopIteration) {
		return nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// Anything else came from ctx or the caller's fn and passes through
	return err
}

// Get retrieves one object body
func (bs *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return data, nil
}

// Put writes one object
func (bs *BadgerStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database
func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

// badgerLogger adapts our logger to badger's logger interface
type badgerLogger struct {
	logger *logging.Logger
}

func (bl *badgerLogger) Errorf(format string, args ...interface{}) {
	bl.logger.WithComponent(logging.ComponentBlob).Errorf(format, args...)
}

func (bl *badgerLogger) Warningf(format string, args ...interface{}) {
	bl.logger.WithComponent(logging.ComponentBlob).Warnf(format, args...)
}

func (bl *badgerLogger) Infof(format string, args ...interface{}) {
	bl.logger.WithComponent(logging.ComponentBlob).Debugf(format, args...)
}

func (bl *badgerLogger) Debugf(format string, args ...interface{}) {
	bl.logger.WithComponent(logging.ComponentBlob).Debugf(format, args...)
}
