package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftroom/draftroom/internal/repository"
)

// DeviceStateRepository implements repository.DeviceStateRepository over a
// device-local SQLite file
type DeviceStateRepository struct {
	db *DB
}

// NewDeviceStateRepository creates a new DeviceStateRepository
func NewDeviceStateRepository(db *DB) *DeviceStateRepository {
	return &DeviceStateRepository{db: db}
}

// Get retrieves a value by key
func (r *DeviceStateRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM device_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get device state: %w", err)
	}
	return value, nil
}

// Set stores a value, overwriting any previous one
func (r *DeviceStateRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO device_state (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set device state: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (r *DeviceStateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete device state: %w", err)
	}
	return nil
}
