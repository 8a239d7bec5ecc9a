package config

import (
	"os"
	"time"
)

// Config holds configuration for the app gateway server.
type Config struct {
	// ListenAddr is the address the HTTP server binds to (e.g., ":6644").
	ListenAddr string `yaml:"listen_addr"`

	// AppKeys is the authorized credential set, fixed at process start.
	// Entries are opaque tenant tokens; there is no runtime add/remove.
	AppKeys []string `yaml:"app_keys"`

	// AppKeysFile optionally points at a file with one key per line.
	// Keys from the file are appended to AppKeys before validation.
	AppKeysFile string `yaml:"app_keys_file"`

	// Cache configures the Olric distributed cache capability.
	Cache CacheConfig `yaml:"cache"`

	// Database configures the tenant metadata store.
	Database DatabaseConfig `yaml:"database"`

	// Events enables the per-namespace WebSocket event stream.
	Events EventsConfig `yaml:"events"`

	// LogFile, when set, sends logs to a file instead of stdout.
	LogFile string `yaml:"log_file"`

	// NoColor disables ANSI colors in log output.
	NoColor bool `yaml:"no_color"`
}

// CacheConfig holds Olric client settings.
type CacheConfig struct {
	// Servers is a list of Olric server addresses (e.g., ["localhost:3320"]).
	// If empty, defaults to ["localhost:3320"].
	Servers []string `yaml:"servers"`

	// Timeout for cache operations (default: 10s).
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds store settings.
type DatabaseConfig struct {
	// Driver selects the database/sql driver: "rqlite" for clustered
	// deployments, "sqlite3" for single-node. Defaults to "sqlite3".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name. For rqlite an HTTP URL
	// (e.g., "http://localhost:4001"); for sqlite3 a file path.
	DSN string `yaml:"dsn"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	Enabled bool `yaml:"enabled"`

	// BufferSize is the per-subscriber message buffer (default: 128).
	BufferSize int `yaml:"buffer_size"`
}

// Default returns a Config with development-friendly defaults applied.
func Default() *Config {
	return &Config{
		ListenAddr: ":6644",
		Cache: CacheConfig{
			Servers: []string{"localhost:3320"},
			Timeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "appgate.db",
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 128,
		},
	}
}

// Load reads a YAML config file, applies it over defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := DecodeStrict(f, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
