package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrDeviceNotFound = errors.New("device not found")

// Device is a stored set-top box.
type Device struct {
	ID           string
	ProfileID    int64
	Name         string
	Protocol     string
	Host         string
	Port         int
	SerialPort   string
	DeviceIndex  int
	UsesListings bool
	PollInterval time.Duration
	Debug        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeviceStore provides device operations scoped by profile.
type DeviceStore interface {
	Get(ctx context.Context, id string) (*Device, error)
	List(ctx context.Context, profileID int64) ([]*Device, error)
	Upsert(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id string) error
}

// Devices returns a DeviceStore for this database.
func (db *DB) Devices() DeviceStore {
	return &deviceStore{db: db}
}

type deviceStore struct {
	db *DB
}

const deviceColumns = `id, profile_id, name, protocol, host, port, serial_port, device_index,
	uses_listings, poll_interval_seconds, debug, created_at, updated_at`

func scanDevice(row rowScanner) (*Device, error) {
	d := &Device{}
	var pollSeconds int64
	var createdAt, updatedAt string
	err := row.Scan(&d.ID, &d.ProfileID, &d.Name, &d.Protocol, &d.Host, &d.Port, &d.SerialPort,
		&d.DeviceIndex, &d.UsesListings, &pollSeconds, &d.Debug, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	d.PollInterval = time.Duration(pollSeconds) * time.Second
	d.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	d.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return d, nil
}

func (s *deviceStore) Get(ctx context.Context, id string) (*Device, error) {
	return scanDevice(s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
}

func (s *deviceStore) List(ctx context.Context, profileID int64) ([]*Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE profile_id = ? ORDER BY device_index, name`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var devices []*Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// Upsert inserts d or replaces the row with the same id.
func (s *deviceStore) Upsert(ctx context.Context, d *Device) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, profile_id, name, protocol, host, port, serial_port, device_index,
			uses_listings, poll_interval_seconds, debug)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			protocol = excluded.protocol,
			host = excluded.host,
			port = excluded.port,
			serial_port = excluded.serial_port,
			device_index = excluded.device_index,
			uses_listings = excluded.uses_listings,
			poll_interval_seconds = excluded.poll_interval_seconds,
			debug = excluded.debug,
			updated_at = datetime('now')
	`, d.ID, d.ProfileID, d.Name, d.Protocol, d.Host, d.Port, d.SerialPort, d.DeviceIndex,
		d.UsesListings, int64(d.PollInterval/time.Second), d.Debug)
	if err != nil {
		return fmt.Errorf("failed to save device: %w", err)
	}
	return nil
}

func (s *deviceStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
