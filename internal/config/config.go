// Package config loads the lobby server's YAML configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written in YAML as a
// human string ("3s", "10m") instead of raw nanoseconds.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("3s") or a bare
// integer, interpreted as seconds.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			*d = Duration(time.Duration(secs) * time.Second)
			return nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var secs int64
	if err := unmarshal(&secs); err != nil {
		return err
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// Server holds all configuration for the lobby server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// MaxConnections caps the number of simultaneously accepted sockets (§4.7).
	MaxConnections int `yaml:"max_connections"`

	// Timeouts
	LoginTimeout  Duration `yaml:"login_timeout"`   // §4.5 Authenticating deadline (default 3s)
	IdleTimeout   Duration `yaml:"idle_timeout"`     // §4.5 Active read deadline (default 10m)
	WriteFlush    Duration `yaml:"write_flush"`      // §4.5.2 writer's idle flush delay (default 100ms)
	SendQueueSize int      `yaml:"send_queue_size"`  // per-session outbound buffer capacity

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)
}

// DefaultServer returns a Server config with the specification's defaults.
func DefaultServer() Server {
	return Server{
		BindAddress:    "0.0.0.0",
		Port:           17000,
		MaxConnections: 1000,
		LoginTimeout:   Duration(3 * time.Second),
		IdleTimeout:    Duration(10 * time.Minute),
		WriteFlush:     Duration(100 * time.Millisecond),
		SendQueueSize:  256,
		LogLevel:       "info",
	}
}

// Load reads server config from a YAML file. If the file doesn't exist,
// it returns the defaults unchanged.
func Load(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
