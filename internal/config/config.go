// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and the environment on top.
// - Every key maps one to one onto a koanf tag below.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/livescore/internal/domain/factory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of transition workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds each worker's job queue.
	QueueSize int `koanf:"queue_size"`

	// SpawnIntervalMS and SpawnJitterMS pace event creation.
	SpawnIntervalMS int `koanf:"spawn_interval_ms"`
	SpawnJitterMS   int `koanf:"spawn_jitter_ms"`

	// RandomSeed seeds the simulator. Zero picks a time based seed.
	RandomSeed uint64 `koanf:"random_seed"`

	// Roster lists the competitor names events are drawn from.
	Roster []string `koanf:"roster"`

	// AllowedOrigins is the CORS allow-list.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// RedisURL enables mirroring notifications to Redis when set.
	RedisURL string `koanf:"redis_url"`

	// RedisChannelPrefix is prepended to the topic to form the Redis channel.
	RedisChannelPrefix string `koanf:"redis_channel_prefix"`

	// SubscriberBuffer is how many messages a stream client may lag behind.
	SubscriberBuffer int `koanf:"subscriber_buffer"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       1024,
		SpawnIntervalMS: 5000,
		SpawnJitterMS:   30000,
		Roster:          append([]string(nil), factory.DefaultRoster...),
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		RedisChannelPrefix: "livescore:",
		SubscriberBuffer:   64,
	}
}

// SpawnInterval returns the spawn interval as a duration.
func (c *Config) SpawnInterval() time.Duration {
	return time.Duration(c.SpawnIntervalMS) * time.Millisecond
}

// SpawnJitter returns the spawn jitter bound as a duration.
func (c *Config) SpawnJitter() time.Duration {
	return time.Duration(c.SpawnJitterMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.SpawnIntervalMS <= 0:
		return fmt.Errorf("%w: spawn_interval_ms must be positive", ErrInvalidConfig)
	case c.SpawnJitterMS < 0:
		return fmt.Errorf("%w: spawn_jitter_ms must not be negative", ErrInvalidConfig)
	case c.SubscriberBuffer <= 0:
		return fmt.Errorf("%w: subscriber_buffer must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	distinct := make(map[string]struct{}, len(c.Roster))
	for _, name := range c.Roster {
		if name = strings.TrimSpace(name); name != "" {
			distinct[name] = struct{}{}
		}
	}
	if len(distinct) < 2 {
		return fmt.Errorf("%w: roster needs at least two distinct names", ErrInvalidConfig)
	}
	return nil
}
