package devices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quangdm/sensorlake/internal/logging"
	"github.com/quangdm/sensorlake/pkg/models"
)

// PostgresRegistry implements Registry using PostgreSQL
type PostgresRegistry struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// NewPostgresRegistry wraps an existing connection pool and ensures the schema
func NewPostgresRegistry(ctx context.Context, pool *pgxpool.Pool, logger *logging.Logger) (*PostgresRegistry, error) {
	pr := &PostgresRegistry{
		pool:   pool,
		logger: logger.WithComponent(logging.ComponentDevices),
	}

	if err := pr.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	pr.logger.Info("Device registry initialized")
	return pr, nil
}

func (pr *PostgresRegistry) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS device_types (
		id BIGINT PRIMARY KEY,
		name VARCHAR(64) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS devices (
		id BIGSERIAL PRIMARY KEY,
		device_id VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		device_type VARCHAR(64) NOT NULL DEFAULT '',
		api_key CHAR(64) NOT NULL,
		user_id BIGINT NOT NULL,
		province VARCHAR(128) NOT NULL DEFAULT '',
		district VARCHAR(128) NOT NULL DEFAULT '',
		ward VARCHAR(128) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	if _, err := pr.pool.Exec(ctx, schema); err != nil {
		return err
	}

	for _, dt := range defaultDeviceTypes {
		_, err := pr.pool.Exec(ctx,
			`INSERT INTO device_types (id, name, description) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			dt.ID, dt.Name, dt.Description)
		if err != nil {
			return err
		}
	}

	return nil
}

// Register stores a new device and returns its generated API key
func (pr *PostgresRegistry) Register(ctx context.Context, device *models.Device) (string, error) {
	apiKey, err := NewAPIKey()
	if err != nil {
		return "", err
	}

	device.DeviceID = NormalizeDeviceID(device.DeviceID)

	err = pr.pool.QueryRow(ctx,
		`INSERT INTO devices (device_id, name, description, device_type, api_key, user_id, province, district, ward)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		device.DeviceID, device.Name, device.Description, device.DeviceType,
		apiKey, device.UserID, device.Province, device.District, device.Ward,
	).Scan(&device.ID, &device.CreatedAt, &device.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("failed to register device: %w", err)
	}

	device.APIKey = apiKey
	return apiKey, nil
}

// List returns all registered devices, newest first
func (pr *PostgresRegistry) List(ctx context.Context) ([]models.Device, error) {
	rows, err := pr.pool.Query(ctx,
		`SELECT id, device_id, name, description, device_type, api_key, user_id,
		        province, district, ward, created_at, updated_at
		 FROM devices
		 ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device rows: %w", err)
	}

	return devices, nil
}

// Authenticate resolves a device by id and API key
func (pr *PostgresRegistry) Authenticate(ctx context.Context, deviceID, apiKey string) (*models.Device, error) {
	rows, err := pr.pool.Query(ctx,
		`SELECT id, device_id, name, description, device_type, api_key, user_id,
		        province, district, ward, created_at, updated_at
		 FROM devices
		 WHERE device_id = $1 AND api_key = $2`,
		NormalizeDeviceID(deviceID), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate device: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to authenticate device: %w", err)
		}
		return nil, ErrUnauthorized
	}

	return scanDevice(rows)
}

// ResetKey replaces the API key of the device with the given row id
func (pr *PostgresRegistry) ResetKey(ctx context.Context, id int64) (string, error) {
	apiKey, err := NewAPIKey()
	if err != nil {
		return "", err
	}

	tag, err := pr.pool.Exec(ctx,
		`UPDATE devices SET api_key = $1, updated_at = NOW() WHERE id = $2`,
		apiKey, id)
	if err != nil {
		return "", fmt.Errorf("failed to reset api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", ErrNotFound
	}

	return apiKey, nil
}

// Delete removes a device by its device_id
func (pr *PostgresRegistry) Delete(ctx context.Context, deviceID string) error {
	tag, err := pr.pool.Exec(ctx,
		`DELETE FROM devices WHERE device_id = $1`, NormalizeDeviceID(deviceID))
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeviceTypes lists the known device categories
func (pr *PostgresRegistry) DeviceTypes(ctx context.Context) ([]models.DeviceType, error) {
	rows, err := pr.pool.Query(ctx,
		`SELECT id, name, description FROM device_types ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list device types: %w", err)
	}
	defer rows.Close()

	var types []models.DeviceType
	for rows.Next() {
		var dt models.DeviceType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.Description); err != nil {
			return nil, fmt.Errorf("failed to scan device type: %w", err)
		}
		types = append(types, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device type rows: %w", err)
	}

	return types, nil
}

// Close is a no-op; the shared pool is owned by the composition root
func (pr *PostgresRegistry) Close() error {
	return nil
}

func scanDevice(rows pgx.Rows) (*models.Device, error) {
	var d models.Device
	err := rows.Scan(&d.ID, &d.DeviceID, &d.Name, &d.Description, &d.DeviceType,
		&d.APIKey, &d.UserID, &d.Province, &d.District, &d.Ward, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan device row: %w", err)
	}
	return &d, nil
}
