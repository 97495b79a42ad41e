package config

import "time"

// DatabaseConfig selects the checkpoint and event log store.
// A non-empty URL wins over the discrete postgres fields.
type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=postgres sqlite"`
	URL  string `mapstructure:"url"`

	// postgres
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`

	// sqlite file, or ":memory:"
	Path string `mapstructure:"path" validate:"required_if=Type sqlite"`

	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig bounds the sql.DB pool. SQLite ignores MaxOpen and uses one connection.
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=1,ltefield=MaxOpen"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// LoggingConfig drives the slog handler built by infrastructure/logging
type LoggingConfig struct {
	Level         string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format        string `mapstructure:"format" validate:"required,oneof=json text"`
	Output        string `mapstructure:"output" validate:"required,oneof=stdout stderr file"`
	FilePath      string `mapstructure:"file_path" validate:"required_if=Output file"`
	IncludeCaller bool   `mapstructure:"include_caller"`
}

// MetricsConfig is the Prometheus scrape endpoint. Collection stays off
// unless Enabled is set.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`
	Path    string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// DaemonConfig covers the long-running colony-daemon process
type DaemonConfig struct {
	// gRPC health endpoint, host:port or unix:/path/to.sock
	Address string `mapstructure:"address" validate:"required"`

	// doubles as the single-instance lock
	PIDFile string `mapstructure:"pid_file" validate:"required"`

	StatusInterval  time.Duration `mapstructure:"status_interval" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}
