package filters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quangdm/sensorlake/internal/logging"
	"github.com/quangdm/sensorlake/pkg/models"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// NewPostgresStore wraps an existing connection pool and ensures the schema
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *logging.Logger) (*PostgresStore, error) {
	ps := &PostgresStore{
		pool:   pool,
		logger: logger.WithComponent(logging.ComponentFilters),
	}

	if err := ps.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ps.logger.Info("Saved-filter store initialized")
	return ps, nil
}

func (ps *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS export_filters (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		filter_name VARCHAR(255) NOT NULL DEFAULT '',
		filter_json TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_export_filters_user_created
		ON export_filters(user_id, created_at DESC);
	`

	_, err := ps.pool.Exec(ctx, schema)
	return err
}

// Save persists a filter specification
func (ps *PostgresStore) Save(ctx context.Context, userID int64, name string, filter models.Filter) (int64, error) {
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter: %w", err)
	}

	var id int64
	err = ps.pool.QueryRow(ctx,
		`INSERT INTO export_filters (user_id, filter_name, filter_json) VALUES ($1, $2, $3) RETURNING id`,
		userID, name, string(filterJSON),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save filter: %w", err)
	}

	return id, nil
}

// ListByUser returns a user's saved filters, newest first
func (ps *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]models.SavedFilter, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT id, user_id, filter_name, filter_json, created_at
		 FROM export_filters
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	defer rows.Close()

	var records []models.SavedFilter
	for rows.Next() {
		record, err := scanSavedFilter(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read filter rows: %w", err)
	}

	return records, nil
}

// Get retrieves one saved filter
func (ps *PostgresStore) Get(ctx context.Context, id int64) (*models.SavedFilter, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT id, user_id, filter_name, filter_json, created_at
		 FROM export_filters
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get filter: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get filter: %w", err)
		}
		return nil, ErrNotFound
	}

	return scanSavedFilter(rows)
}

// Delete removes one saved filter
func (ps *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM export_filters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete filter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; the shared pool is owned by the composition root
func (ps *PostgresStore) Close() error {
	return nil
}

func scanSavedFilter(rows pgx.Rows) (*models.SavedFilter, error) {
	var record models.SavedFilter
	var filterJSON string

	if err := rows.Scan(&record.ID, &record.UserID, &record.FilterName, &filterJSON, &record.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan filter row: %w", err)
	}

	// A corrupt stored specification degrades to an unconstrained filter
	// rather than poisoning the listing.
	if err := json.Unmarshal([]byte(filterJSON), &record.Filter); err != nil {
		record.Filter = models.Filter{}
	}

	return &record, nil
}
