// Package config defines runtime configuration for smu-sensors.
//
// Settings come from, in increasing priority: built-in defaults, an
// optional YAML file named by --config or SMU_CONFIG, SMU_* environment
// variables, and command-line flags. There is no automatic discovery of
// config files.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hartyporpoise/smusensors/internal/smu"
)

// MinInterval is the shortest refresh interval accepted.
const MinInterval = 100 * time.Millisecond

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Environment variable names.
const (
	EnvSysfsPath = "SMU_SYSFS_PATH"
	EnvInterval  = "SMU_INTERVAL"
	EnvConfig    = "SMU_CONFIG"
)

// Config holds all settings passed in via config file, environment
// variables or CLI flags.
type Config struct {
	// SysfsPath is the ryzen_smu driver directory.
	SysfsPath string `yaml:"sysfs_path"`

	// Interval is the refresh interval for watch mode, the dashboard and
	// the HTTP stream.
	Interval time.Duration `yaml:"interval"`

	// Format selects one-shot and watch output: text, json or cbor.
	Format string `yaml:"format"`

	// Sections filters text output. No section selected means all.
	Sections Sections `yaml:"sections"`

	// CoreCount overrides OS core detection when positive.
	CoreCount int `yaml:"core_count"`

	// Host is the network interface to bind the HTTP server to.
	Host string `yaml:"host"`

	// Port is the HTTP server port.
	Port int `yaml:"port"`

	// LogLevel is the slog level name for long-running commands.
	LogLevel string `yaml:"log_level"`
}

// Sections selects which groups of readings text output shows.
type Sections struct {
	Temps bool `yaml:"temps"`
	Power bool `yaml:"power"`
	Freq  bool `yaml:"freq"`
}

// All reports whether no filter was requested.
func (s Sections) All() bool { return !s.Temps && !s.Power && !s.Freq }

// ShowTemps reports whether temperatures are shown.
func (s Sections) ShowTemps() bool { return s.All() || s.Temps }

// ShowPower reports whether power readings and limits are shown.
func (s Sections) ShowPower() bool { return s.All() || s.Power }

// ShowFreq reports whether clocks and frequencies are shown.
func (s Sections) ShowFreq() bool { return s.All() || s.Freq }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SysfsPath: smu.DefaultPath,
		Interval:  time.Second,
		Format:    FormatText,
		Host:      "127.0.0.1",
		Port:      9143,
		LogLevel:  "info",
	}
}

// LoadFile loads path over the defaults. Keys the file omits keep their
// default values; unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SMU_* variables found by lookup
// (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSysfsPath); ok && v != "" {
		c.SysfsPath = v
	}
	if v, ok := lookup(EnvInterval); ok && v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvInterval, err)
		}
		c.Interval = d
	}
	return nil
}

// parseInterval accepts a Go duration ("500ms") or a bare number of
// milliseconds ("500").
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.SysfsPath == "" {
		return fmt.Errorf("config: sysfs path is empty")
	}
	if c.Interval < MinInterval {
		return fmt.Errorf("config: interval %v is below the %v minimum", c.Interval, MinInterval)
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatCBOR:
	default:
		return fmt.Errorf("config: unknown format %q (want text, json or cbor)", c.Format)
	}
	if c.CoreCount < 0 {
		return fmt.Errorf("config: core count %d is negative", c.CoreCount)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}
