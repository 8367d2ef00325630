// Package config holds the client configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Default scsynth control port.
const DefaultPort = 57110

// Config groups the settings required to initialise a Client. Zero values
// fall back to the defaults documented per field; call Validate before use.
type Config struct {
	// Transport selects the registered transport backend. Supported values:
	// "udp" (a running scsynth instance) or "channel" (in-memory loopback,
	// useful for testing).
	Transport string `env:"OVERTONE_TRANSPORT,default=udp"`

	// Host and Port locate the engine's OSC endpoint for the udp transport.
	Host string `env:"OVERTONE_HOST,default=127.0.0.1"`
	Port int    `env:"OVERTONE_PORT,default=57110"`

	// ReplyTimeout bounds every reply-correlated wait (status, sync,
	// subtree queries, buffer readiness). Defaults to 500ms.
	ReplyTimeout time.Duration `env:"OVERTONE_REPLY_TIMEOUT,default=500ms"`

	// BootTimeout bounds the connect negotiation. Defaults to 10s.
	BootTimeout time.Duration `env:"OVERTONE_BOOT_TIMEOUT,default=10s"`

	// Identifier capacities. The engine imposes its own hard ceilings; these
	// must not exceed the matching scsynth limits.
	MaxNodes        int `env:"OVERTONE_MAX_NODES,default=1024"`
	MaxBuffers      int `env:"OVERTONE_MAX_BUFFERS,default=1024"`
	MaxAudioBuses   int `env:"OVERTONE_MAX_AUDIO_BUSES,default=128"`
	MaxControlBuses int `env:"OVERTONE_MAX_CONTROL_BUSES,default=4096"`

	// MetricsEnabled registers prometheus collectors on the registerer
	// supplied through ClientDependencies.
	MetricsEnabled bool `env:"OVERTONE_METRICS_ENABLED,default=false"`
}

// Getter methods to implement the transport.Config interface.
func (c *Config) GetTransport() string { return c.Transport }
func (c *Config) GetHost() string      { return c.Host }
func (c *Config) GetPort() int         { return c.Port }

// Default returns a Config with every field at its documented default.
func Default() *Config {
	return &Config{
		Transport:       "udp",
		Host:            "127.0.0.1",
		Port:            DefaultPort,
		ReplyTimeout:    500 * time.Millisecond,
		BootTimeout:     10 * time.Second,
		MaxNodes:        1024,
		MaxBuffers:      1024,
		MaxAudioBuses:   128,
		MaxControlBuses: 4096,
	}
}

// FromEnv loads a Config from OVERTONE_* environment variables.
func FromEnv() (*Config, error) {
	var c Config
	if err := envdecode.StrictDecode(&c); err != nil {
		return nil, fmt.Errorf("config from env: %w", err)
	}
	return &c, nil
}

// Validate checks the configuration. Returns an error joining every invalid
// field.
func (c *Config) Validate() error {
	var errs []error

	if c.Transport == "" {
		errs = append(errs, errors.New("transport: name is required"))
	}
	if c.Transport == "udp" && c.Host == "" {
		errs = append(errs, errors.New("udp: host is required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("udp: invalid port %d", c.Port))
	}
	if c.ReplyTimeout <= 0 {
		errs = append(errs, errors.New("reply timeout must be positive"))
	}
	if c.BootTimeout <= 0 {
		errs = append(errs, errors.New("boot timeout must be positive"))
	}
	for _, lim := range []struct {
		name string
		v    int
	}{
		{"max nodes", c.MaxNodes},
		{"max buffers", c.MaxBuffers},
		{"max audio buses", c.MaxAudioBuses},
		{"max control buses", c.MaxControlBuses},
	} {
		if lim.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", lim.name))
		}
	}

	return errors.Join(errs...)
}

func (c Config) String() string {
	// Type alias avoids infinite recursion when printing.
	type configAlias Config
	return fmt.Sprintf("%+v", configAlias(c))
}
