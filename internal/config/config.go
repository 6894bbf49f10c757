// Package config provides runtime configuration for the status daemon.
// It uses Viper to load settings from the add-on options file and environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is where the add-on supervisor writes user options.
const DefaultPath = "/data/options.json"

const (
	defaultScreenDuration = 10
	defaultTickInterval   = 1000
	defaultStatusEvery    = 60
	defaultRetryBackoff   = 5
)

// Config holds all runtime configuration. It is loaded once and never mutated.
type Config struct {
	// ── Rotation ─────────────────────────────────────────────────────────────
	// ScreenDuration is how long each screen stays up, in seconds.
	ScreenDuration int `mapstructure:"screen_duration"`
	TickIntervalMS int `mapstructure:"tick_interval_ms"`
	// StatusEveryTicks: the status line is logged on ticks 0, N, 2N, ...
	StatusEveryTicks int `mapstructure:"status_every_ticks"`

	// ── Loop recovery ────────────────────────────────────────────────────────
	RetryBackoffSeconds int `mapstructure:"retry_backoff_seconds"`
	RetryJitterMS       int `mapstructure:"retry_jitter_ms"`

	// ── Clock & display ──────────────────────────────────────────────────────
	Timezone string `mapstructure:"timezone"` // IANA name or "Local"
	I2CBus   string `mapstructure:"i2c_bus"`
}

// Default returns the configuration used when no options file is present.
func Default() *Config {
	return &Config{
		ScreenDuration:      defaultScreenDuration,
		TickIntervalMS:      defaultTickInterval,
		StatusEveryTicks:    defaultStatusEvery,
		RetryBackoffSeconds: defaultRetryBackoff,
		Timezone:            "Local",
		I2CBus:              "1",
	}
}

// Load reads the JSON options file at path. A missing or malformed file is
// not an error: the defaults are used instead. Environment variables with
// prefix ARGON_ override file values.
func Load(path string) *Config {
	d := Default()
	v := newViper(d)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			// options file is optional; a broken one is treated as absent
			v = newViper(d)
		}
	}

	var cfg Config
	if err := bindEnv(v).Unmarshal(&cfg); err != nil {
		// a mistyped file value drops the file, env overrides still apply
		cfg = Config{}
		if err := bindEnv(newViper(d)).Unmarshal(&cfg); err != nil {
			return d
		}
	}
	cfg.Sanitize()
	return &cfg
}

// bindEnv lets ARGON_<KEY> variables override every key.
func bindEnv(v *viper.Viper) *viper.Viper {
	v.SetEnvPrefix("ARGON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// newViper returns a Viper instance seeded with every key's default, so that
// AutomaticEnv can bind all of them during Unmarshal.
func newViper(d *Config) *viper.Viper {
	v := viper.New()
	v.SetDefault("screen_duration", d.ScreenDuration)
	v.SetDefault("tick_interval_ms", d.TickIntervalMS)
	v.SetDefault("status_every_ticks", d.StatusEveryTicks)
	v.SetDefault("retry_backoff_seconds", d.RetryBackoffSeconds)
	v.SetDefault("retry_jitter_ms", d.RetryJitterMS)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("i2c_bus", d.I2CBus)
	return v
}

// Sanitize replaces nonsensical values with defaults.
func (c *Config) Sanitize() {
	if c.ScreenDuration <= 0 {
		c.ScreenDuration = defaultScreenDuration
	}
	if c.TickIntervalMS <= 0 {
		c.TickIntervalMS = defaultTickInterval
	}
	if c.StatusEveryTicks <= 0 {
		c.StatusEveryTicks = defaultStatusEvery
	}
	if c.RetryBackoffSeconds < 0 {
		c.RetryBackoffSeconds = defaultRetryBackoff
	}
	if c.RetryJitterMS < 0 {
		c.RetryJitterMS = 0
	}
	if c.I2CBus == "" {
		c.I2CBus = "1"
	}
}

// ScreenDwell is the time each screen stays up before rotating.
func (c *Config) ScreenDwell() time.Duration {
	return time.Duration(c.ScreenDuration) * time.Second
}

// TickInterval is the sleep between two ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// RetryBackoff is the pause after a tick that failed unexpectedly.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}

// RetryJitter is the upper bound of the random delay added to RetryBackoff.
func (c *Config) RetryJitter() time.Duration {
	return time.Duration(c.RetryJitterMS) * time.Millisecond
}

// Location resolves Timezone, falling back to the host's local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
