package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/urmzd/homai-tivo/pkg/device"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config is the runtime configuration of the active profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
	Devices   []*Device
	Listings  *ListingsAccount
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return "0.0.0.0:8080"
	}
	return c.APIServer.Address()
}

// Timezone returns the profile timezone.
func (c *Config) Timezone() string {
	if c.Profile == nil {
		return "UTC"
	}
	return c.Profile.Timezone
}

// RegistryDevices returns the stored devices ready for device.Registry.Load.
func (c *Config) RegistryDevices() []device.Device {
	out := make([]device.Device, 0, len(c.Devices))
	for _, d := range c.Devices {
		out = append(out, d.ToDevice())
	}
	return out
}

// ActiveConfig loads the complete configuration for the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	config := &Config{
		Profile: profile,
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}
	config.APIServer = apiServer

	devices, err := db.Devices().List(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	config.Devices = devices

	account, err := db.ListingsAccounts().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrListingsAccountNotFound) {
		return nil, fmt.Errorf("failed to get listings account: %w", err)
	}
	config.Listings = account

	return config, nil
}
