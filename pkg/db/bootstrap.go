package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urmzd/homai-tivo/pkg/device"
	"github.com/urmzd/homai-tivo/pkg/tivo"
)

// Seed is the first-run content written by Bootstrap.
type Seed struct {
	APIHost  string
	APIPort  int
	Devices  []Device
	Listings *ListingsAccount
}

// Bootstrap creates the default profile and writes seed into it when the
// database is empty. It does nothing on later runs.
func (db *DB) Bootstrap(ctx context.Context, seed Seed) error {
	if seed.APIHost == "" {
		seed.APIHost = DefaultAPIHost
	}
	if seed.APIPort == 0 {
		seed.APIPort = DefaultAPIPort
	}

	return db.Tx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
			return fmt.Errorf("failed to check profiles: %w", err)
		}
		if count > 0 {
			return nil // Already bootstrapped
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (name, timezone, is_active)
			VALUES (?, ?, 1)
		`, "default", detectTimezone())
		if err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}
		profileID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get profile ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO api_servers (profile_id, host, port)
			VALUES (?, ?, ?)
		`, profileID, seed.APIHost, seed.APIPort); err != nil {
			return fmt.Errorf("failed to create default API server: %w", err)
		}

		for i, d := range seed.Devices {
			if d.ID == "" {
				d.ID = uuid.NewString()
			}
			if d.Protocol == "" {
				d.Protocol = device.ProtocolTCP
			}
			if d.PollInterval <= 0 {
				d.PollInterval = device.DefaultPollInterval
			}
			if d.Protocol == device.ProtocolTCP && d.Port == 0 {
				d.Port = tivo.DefaultPort
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO devices (id, profile_id, name, protocol, host, port, serial_port, device_index,
					uses_listings, poll_interval_seconds, debug)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, d.ID, profileID, d.Name, d.Protocol, d.Host, d.Port, d.SerialPort, d.DeviceIndex,
				d.UsesListings, int64(d.PollInterval/time.Second), d.Debug); err != nil {
				return fmt.Errorf("failed to seed device %d (%s): %w", i, d.Name, err)
			}
		}

		if a := seed.Listings; a != nil && a.Username != "" {
			interval := a.RefreshInterval
			if interval <= 0 {
				interval = device.DefaultListingsInterval
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO listings_accounts (profile_id, username, password, base_url, refresh_interval_seconds, debug)
				VALUES (?, ?, ?, ?, ?, ?)
			`, profileID, a.Username, a.Password, a.BaseURL, int64(interval/time.Second), a.Debug); err != nil {
				return fmt.Errorf("failed to seed listings account: %w", err)
			}
		}

		return nil
	})
}

// detectTimezone attempts to detect the system timezone.
func detectTimezone() string {
	switch runtime.GOOS {
	case "darwin":
		// Try systemsetup first
		out, err := exec.Command("systemsetup", "-gettimezone").Output()
		if err == nil {
			parts := strings.SplitN(string(out), ": ", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}

		// Fallback: read /etc/localtime symlink
		if link, err := os.Readlink("/etc/localtime"); err == nil {
			if idx := strings.Index(link, "zoneinfo/"); idx != -1 {
				return link[idx+9:]
			}
		}

	case "linux":
		// Try timedatectl first (systemd)
		out, err := exec.Command("timedatectl", "show", "--property=Timezone", "--value").Output()
		if err == nil {
			return strings.TrimSpace(string(out))
		}

		// Fallback: /etc/timezone file
		if data, err := os.ReadFile("/etc/timezone"); err == nil {
			return strings.TrimSpace(string(data))
		}

		// Fallback: /etc/localtime symlink
		if link, err := os.Readlink("/etc/localtime"); err == nil {
			if idx := strings.Index(link, "zoneinfo/"); idx != -1 {
				return link[idx+9:]
			}
		}
	}

	return "UTC"
}

// NeedsBootstrap returns true if the database needs initial setup.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
