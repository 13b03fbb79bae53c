// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the Redis protocol server.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// ReadTimeout bounds the wait for the rest of a partial command.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds writing replies.
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// IdleTimeout closes connections idle between commands.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// MaxConnections caps concurrent clients (0 = unlimited).
	MaxConnections int `koanf:"max_connections"`
	// RateLimit caps commands per second per connection (0 = off).
	RateLimit int `koanf:"rate_limit"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	// ShardCount is the number of lock shards (power of 2).
	ShardCount int `koanf:"shard_count"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
