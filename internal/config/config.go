package config

import (
	"time"

	"github.com/vovakirdan/citychain-server/internal/core"
	"github.com/vovakirdan/citychain-server/internal/store"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	Rooms             int           `mapstructure:"rooms" yaml:"rooms"`
	TurnTimeout       time.Duration `mapstructure:"turn_timeout" yaml:"turn_timeout"`
	MessagesPerMinute int           `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`

	BanStore BanStoreConfig `mapstructure:"ban_store" yaml:"ban_store"`
	NATS     NATSConfig     `mapstructure:"nats" yaml:"nats"`
}

// BanStoreConfig selects where the ban registry lives.
type BanStoreConfig struct {
	Driver       store.Driver `mapstructure:"driver" yaml:"driver"`
	DatabasePath string       `mapstructure:"database_path" yaml:"database_path"`
	RedisAddr    string       `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisKey     string       `mapstructure:"redis_key" yaml:"redis_key"`
}

// NATSConfig enables lifecycle event publishing when URL is set.
type NATSConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":9001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		Rooms:             core.DefaultRooms,
		TurnTimeout:       core.DefaultTurnTimeout,
		MessagesPerMinute: 0,
		BanStore: BanStoreConfig{
			Driver:       store.DriverMemory,
			DatabasePath: "citychain.db",
			RedisAddr:    "localhost:6379",
			RedisKey:     "citychain:bans",
		},
		NATS: NATSConfig{
			Subject: "citychain.events",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Rooms != 0 {
		c.Rooms = other.Rooms
	}
	if other.TurnTimeout != 0 {
		c.TurnTimeout = other.TurnTimeout
	}
	if other.MessagesPerMinute != 0 {
		c.MessagesPerMinute = other.MessagesPerMinute
	}
	if other.BanStore.Driver != "" {
		c.BanStore.Driver = other.BanStore.Driver
	}
	if other.BanStore.DatabasePath != "" {
		c.BanStore.DatabasePath = other.BanStore.DatabasePath
	}
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
