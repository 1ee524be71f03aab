// Package core wires the sloris configuration to the connection-pool engine.
// It loads and validates configuration, resolves the target and drives the
// engine's tick loop while publishing statistics snapshots for readers.
package core

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "github.com/go-i2p/sloris/lib/errors"
	"github.com/go-i2p/sloris/lib/pool"
	"github.com/pelletier/go-toml/v2"
)

// Default configuration values
const (
	DefaultPort           = 80
	DefaultTimeoutSeconds = 30
	DefaultTickInterval   = 0
	DefaultUIMode         = UIAuto
)

// UI modes
const (
	UIAuto  = "auto"
	UITUI   = "tui"
	UIPlain = "plain"
)

// Config holds all configuration for a sloris run.
type Config struct {
	Target  TargetConfig  `toml:"target"`
	Pool    PoolConfig    `toml:"pool"`
	Metrics MetricsConfig `toml:"metrics"`
	UI      UIConfig      `toml:"ui"`
}

// TargetConfig names the host under load.
type TargetConfig struct {
	// Host is the target host name or address
	Host string `toml:"host"`
	// Port is the target TCP port
	Port uint16 `toml:"port"`
}

// PoolConfig contains engine settings.
type PoolConfig struct {
	// Timeout is the idle time in whole seconds before a drip is sent
	Timeout uint32 `toml:"timeout"`
	// Max is "infinite" or the maximum number of held connections
	Max pool.Admission `toml:"max"`
	// TickInterval is the delay between ticks (0 = back-to-back)
	TickInterval Duration `toml:"tick_interval"`
}

// MetricsConfig contains the status endpoint settings.
type MetricsConfig struct {
	// Listen is the address of the status endpoint; empty disables it
	Listen string `toml:"listen"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Mode is one of auto, tui or plain
	Mode string `toml:"mode"`
	// LogFile receives log output; required to see logs in tui mode
	LogFile string `toml:"log_file,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
// The target host is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Port: DefaultPort,
		},
		Pool: PoolConfig{
			Timeout:      DefaultTimeoutSeconds,
			Max:          pool.Unbounded(),
			TickInterval: DefaultTickInterval,
		},
		UI: UIConfig{
			Mode: DefaultUIMode,
		},
	}
}

// LoadConfig reads configuration from a TOML file and applies SLORIS_*
// environment overrides. If the file doesn't exist, the defaults are used.
// The target host is not required at this stage.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, apperrors.Configuration("reading config file", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, apperrors.Configuration("parsing config file", err)
			}
		}
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.validateValues(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a TOML file.
// It creates the parent directory if it doesn't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ApplyEnvOverrides applies SLORIS_* environment variables to cfg.
// Values that fail to parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if host := os.Getenv("SLORIS_TARGET"); host != "" {
		cfg.Target.Host = host
	}

	if port := os.Getenv("SLORIS_PORT"); port != "" {
		if val, err := strconv.ParseUint(port, 10, 16); err == nil {
			cfg.Target.Port = uint16(val)
		}
	}

	if timeout := os.Getenv("SLORIS_TIMEOUT"); timeout != "" {
		if val, err := strconv.ParseUint(timeout, 10, 32); err == nil {
			cfg.Pool.Timeout = uint32(val)
		}
	}

	if maxConns := os.Getenv("SLORIS_MAX"); maxConns != "" {
		if val, err := pool.ParseAdmission(maxConns); err == nil {
			cfg.Pool.Max = val
		}
	}

	if interval := os.Getenv("SLORIS_TICK_INTERVAL"); interval != "" {
		if val, err := time.ParseDuration(interval); err == nil {
			cfg.Pool.TickInterval = Duration(val)
		}
	}

	if listen := os.Getenv("SLORIS_METRICS_LISTEN"); listen != "" {
		cfg.Metrics.Listen = listen
	}
}

// Validate checks the complete configuration, including the target host.
func (c *Config) Validate() error {
	if c.Target.Host == "" {
		return apperrors.Configuration("target.host is required", nil)
	}
	return c.validateValues()
}

// validateValues checks every setting except the presence of a target.
func (c *Config) validateValues() error {
	if c.Target.Port == 0 {
		return apperrors.Configuration("target.port must be between 1 and 65535", nil)
	}
	if c.Pool.Timeout == 0 {
		return apperrors.Configuration("pool.timeout must be at least 1 second", nil)
	}
	if n, ok := c.Pool.Max.Max(); ok && n == 0 {
		return apperrors.Configuration("pool.max must be at least 1 or \"infinite\"", nil)
	}
	if c.Pool.TickInterval < 0 {
		return apperrors.Configuration("pool.tick_interval must not be negative", nil)
	}
	switch c.UI.Mode {
	case UIAuto, UITUI, UIPlain:
	default:
		return apperrors.Configuration(fmt.Sprintf("ui.mode must be one of auto, tui, plain (got %q)", c.UI.Mode), nil)
	}
	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return apperrors.Configuration("metrics.listen must be host:port", err)
		}
	}
	return nil
}

// Timeout returns the drip timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Pool.Timeout) * time.Second
}

// EngineConfig returns the engine view of the configuration.
func (c *Config) EngineConfig() pool.Config {
	return pool.Config{
		Target:    c.Target.Host,
		Port:      c.Target.Port,
		Timeout:   c.Timeout(),
		Admission: c.Pool.Max,
	}
}

// ResolveTarget looks up the target host and returns the first address.
// A literal IP is returned unchanged.
func (c *Config) ResolveTarget(ctx context.Context) (string, error) {
	if ip := net.ParseIP(c.Target.Host); ip != nil {
		return ip.String(), nil
	}

	addrs, err := net.DefaultResolver.LookupHost(ctx, c.Target.Host)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeResolve, fmt.Sprintf("resolving %s", c.Target.Host), err)
	}
	if len(addrs) == 0 {
		return "", apperrors.New(apperrors.CodeResolve, fmt.Sprintf("resolving %s: no addresses", c.Target.Host))
	}
	return addrs[0], nil
}

// Duration is a time.Duration that reads and writes as a Go duration
// string such as "100ms" in TOML and on the command line.
type Duration time.Duration

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	return d.Set(string(text))
}

// Set implements pflag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Type implements pflag.Value.
func (d *Duration) Type() string {
	return "duration"
}
