// Package config loads the process configuration from config.yaml and
// HOMAI_TIVO_* environment variables. Values here seed the database on the
// first run; afterwards the database is authoritative for devices and the
// listings account.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/urmzd/homai-tivo/pkg/db"
	"github.com/urmzd/homai-tivo/pkg/logging"
)

const EnvPrefix = "HOMAI_TIVO"

// Config holds all process configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
	Listings ListingsConfig `mapstructure:"listings"`
	Devices  []DeviceConfig `mapstructure:"devices"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"` // empty selects the default location
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// APIConfig overrides the stored listen address when set.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type ListingsConfig struct {
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	BaseURL         string        `mapstructure:"base_url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Debug           bool          `mapstructure:"debug"`
}

// DeviceConfig is one seeded set-top box.
type DeviceConfig struct {
	Name         string        `mapstructure:"name"`
	Protocol     string        `mapstructure:"protocol"` // "tcp" or "serial"
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	SerialPort   string        `mapstructure:"serial_port"`
	DeviceIndex  int           `mapstructure:"device_index"`
	UsesListings bool          `mapstructure:"uses_listings"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Debug        bool          `mapstructure:"debug"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultDir returns $XDG_CONFIG_HOME/homai-tivo, falling back to
// ~/.config/homai-tivo.
func DefaultDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, db.AppDir)
}

// Load reads the config file and environment. An explicit path must exist;
// otherwise config.yaml is searched in the working directory and DefaultDir,
// and a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// bindDefaults registers every scalar key so AutomaticEnv can override it
// during Unmarshal.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", cfg.Logging.Compress)

	v.SetDefault("api.host", cfg.API.Host)
	v.SetDefault("api.port", cfg.API.Port)

	v.SetDefault("listings.username", cfg.Listings.Username)
	v.SetDefault("listings.password", cfg.Listings.Password)
	v.SetDefault("listings.base_url", cfg.Listings.BaseURL)
	v.SetDefault("listings.refresh_interval", cfg.Listings.RefreshInterval)
	v.SetDefault("listings.debug", cfg.Listings.Debug)
}

// LoggingOptions converts the logging section for logging.Setup.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}

// Seed returns the first-run database content.
func (c *Config) Seed() db.Seed {
	seed := db.Seed{
		APIHost: c.API.Host,
		APIPort: c.API.Port,
	}
	for _, d := range c.Devices {
		seed.Devices = append(seed.Devices, db.Device{
			Name:         d.Name,
			Protocol:     d.Protocol,
			Host:         d.Host,
			Port:         d.Port,
			SerialPort:   d.SerialPort,
			DeviceIndex:  d.DeviceIndex,
			UsesListings: d.UsesListings,
			PollInterval: d.PollInterval,
			Debug:        d.Debug,
		})
	}
	if c.Listings.Username != "" {
		seed.Listings = &db.ListingsAccount{
			Username:        c.Listings.Username,
			Password:        c.Listings.Password,
			BaseURL:         c.Listings.BaseURL,
			RefreshInterval: c.Listings.RefreshInterval,
			Debug:           c.Listings.Debug,
		}
	}
	return seed
}

// APIAddress returns the configured override, or "" to use the stored one.
func (c *Config) APIAddress() string {
	if c.API.Host == "" && c.API.Port == 0 {
		return ""
	}
	host, port := c.API.Host, c.API.Port
	if host == "" {
		host = db.DefaultAPIHost
	}
	if port == 0 {
		port = db.DefaultAPIPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}
