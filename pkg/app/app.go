// Package app wires configuration, storage, logging and the device registry
// for the API and MCP binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/homai-tivo/pkg/config"
	"github.com/urmzd/homai-tivo/pkg/db"
	"github.com/urmzd/homai-tivo/pkg/device"
	"github.com/urmzd/homai-tivo/pkg/listings"
	"github.com/urmzd/homai-tivo/pkg/logging"
)

// Options are the command-line overrides shared by both binaries.
type Options struct {
	ConfigPath string
	DBPath     string
}

// App is a started process: open database, running poll loops.
type App struct {
	Config   *config.Config
	DB       *db.DB
	Active   *db.Config
	Registry *device.Registry

	logs io.Closer
}

// Start loads configuration, prepares the database and starts polling
// every stored device. Devices that fail to register are logged and
// skipped.
func Start(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logs, err := logging.Setup(cfg.LoggingOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	a := &App{Config: cfg, logs: logs}

	dbPath := cfg.Database.Path
	if opts.DBPath != "" {
		dbPath = opts.DBPath
	}
	a.DB, err = db.OpenContext(ctx, dbPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Info().Str("path", a.DB.Path()).Msg("Database opened")

	if err := a.prepare(ctx); err != nil {
		a.Close()
		return nil, err
	}

	regOpts := []device.RegistryOption{device.WithStore(a.DB.RegistryStore(a.Active.Profile.ID))}
	if acct := a.Active.Listings; acct != nil {
		regOpts = append(regOpts, device.WithListings(newListingsClient(acct), acct.RefreshInterval))
	}
	a.Registry = device.NewRegistry(ctx, regOpts...)

	if err := a.Registry.Load(ctx, a.Active.RegistryDevices()); err != nil {
		log.Warn().Err(err).Msg("Some devices could not be registered")
	}

	log.Info().
		Str("profile", a.Active.Profile.Name).
		Str("timezone", a.Active.Timezone()).
		Int("devices", len(a.Active.Devices)).
		Bool("listings", a.Active.Listings != nil).
		Msg("Configuration loaded")

	return a, nil
}

func (a *App) prepare(ctx context.Context) error {
	if err := a.DB.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	needsBootstrap, err := a.DB.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap status: %w", err)
	}
	if needsBootstrap {
		log.Info().Int("devices", len(a.Config.Devices)).Msg("First run detected, bootstrapping database...")
		if err := a.DB.Bootstrap(ctx, a.Config.Seed()); err != nil {
			return fmt.Errorf("failed to bootstrap database: %w", err)
		}
	}

	a.Active, err = a.DB.ActiveConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return nil
}

func newListingsClient(acct *db.ListingsAccount) *listings.Client {
	opts := []listings.Option{listings.WithDebug(acct.Debug)}
	if acct.BaseURL != "" {
		opts = append(opts, listings.WithBaseURL(acct.BaseURL))
	}
	return listings.NewClient(listings.Credentials{
		Username: acct.Username,
		Password: acct.Password,
	}, opts...)
}

// APIAddress prefers the config file override over the stored address.
func (a *App) APIAddress() string {
	if addr := a.Config.APIAddress(); addr != "" {
		return addr
	}
	return a.Active.APIAddress()
}

// Close stops polling and releases the database and log file.
func (a *App) Close() {
	if a.Registry != nil {
		a.Registry.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}
