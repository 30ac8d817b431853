// Package config loads service configuration by layering
// defaults, environment variables, the config file, and
// explicitly-set command-line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	DataDir        string        `json:"data_dir"`
	EventsDir      string        `json:"events_dir"`
	DBPath         string        `json:"-"`
	ReportTimezone string        `json:"report_timezone"`
	NoWatch        bool          `json:"no_watch"`
	WriteTimeout   time.Duration `json:"-"`
}

// Default returns a Config with default values. The reporting
// timezone defaults to Bangkok, where the survey runs.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("determining home directory: %w", err)
	}
	dataDir := filepath.Join(home, ".ukstats")
	return Config{
		Host:           "127.0.0.1",
		Port:           8080,
		DataDir:        dataDir,
		EventsDir:      filepath.Join(dataDir, "events"),
		DBPath:         filepath.Join(dataDir, "index.db"),
		ReportTimezone: "Asia/Bangkok",
		WriteTimeout:   30 * time.Second,
	}, nil
}

// Load builds a Config by layering defaults, environment
// variables, the config file, and flags. Env runs before the
// file so UKSTATS_DATA_DIR relocates config.json; file values
// never override what an env var already set. The FlagSet must
// already be parsed; only flags the user explicitly set
// override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	envSet := cfg.loadEnv()
	if err := cfg.loadFile(envSet); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	applyFlags(&cfg, fs)

	cfg.DBPath = filepath.Join(cfg.DataDir, "index.db")
	if cfg.EventsDir == "" {
		cfg.EventsDir = filepath.Join(cfg.DataDir, "events")
	}
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

// envOverrides records which settings an env var already won.
type envOverrides struct {
	eventsDir bool
	timezone  bool
}

func (c *Config) loadFile(env envOverrides) error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		Host           string `json:"host"`
		Port           int    `json:"port"`
		EventsDir      string `json:"events_dir"`
		ReportTimezone string `json:"report_timezone"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port != 0 {
		c.Port = file.Port
	}
	if file.EventsDir != "" && !env.eventsDir {
		c.EventsDir = file.EventsDir
	}
	if file.ReportTimezone != "" && !env.timezone {
		c.ReportTimezone = file.ReportTimezone
	}
	return nil
}

func (c *Config) loadEnv() envOverrides {
	var set envOverrides
	if v := os.Getenv("UKSTATS_DATA_DIR"); v != "" {
		c.DataDir = v
		c.EventsDir = filepath.Join(v, "events")
	}
	if v := os.Getenv("UKSTATS_EVENTS_DIR"); v != "" {
		c.EventsDir = v
		set.eventsDir = true
	}
	if v := os.Getenv("UKSTATS_TIMEZONE"); v != "" {
		c.ReportTimezone = v
		set.timezone = true
	}
	return set
}

// Location resolves the reporting timezone, falling back to UTC
// when the name cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RegisterServeFlags registers serve-command flags on fs. The
// caller parses fs before passing it to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8080, "Port to listen on")
	fs.String("data-dir", "", "Data directory (index, config)")
	fs.String("events-dir", "", "Event log directory")
	fs.String("timezone", "", "Reporting timezone (IANA name)")
	fs.Bool("no-watch", false, "Don't watch the event log directory")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// flag already validated the int
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "data-dir":
			cfg.DataDir = f.Value.String()
			cfg.EventsDir = filepath.Join(cfg.DataDir, "events")
		case "events-dir":
			cfg.EventsDir = f.Value.String()
		case "timezone":
			cfg.ReportTimezone = f.Value.String()
		case "no-watch":
			cfg.NoWatch = f.Value.String() == "true"
		}
	})
}
