package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration file:
//
//	default: local
//	log_level: info
//	profiles:
//	  local:
//	    driver: sqlite
//	    dsn: ./app.db
//	    log_queries: true
//	    auto_quote: false
type Config struct {
	Default  string             `yaml:"default"`
	LogLevel string             `yaml:"log_level"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile names one database connection.
type Profile struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	LogQueries bool   `yaml:"log_queries"`
	AutoQuote  bool   `yaml:"auto_quote"`
}

// settings is the resolved configuration a command runs with.
type settings struct {
	Profile
	logLevel slog.Level
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sqlexpr", "config.yaml")
}

// loadConfig reads path. A missing file yields an empty configuration.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolve merges, in increasing precedence, the selected profile, the
// SQLEXPR_DRIVER and DATABASE_URL environment variables and explicit flags.
func (o *rootOptions) resolve(cfg *Config, getenv func(string) string) (*settings, error) {
	s := &settings{logLevel: slog.LevelWarn}

	name := o.profile
	if name == "" {
		name = cfg.Default
	}
	if name != "" {
		p, ok := cfg.Profiles[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", name)
		}
		s.Profile = p
	}
	if cfg.LogLevel != "" {
		if err := s.logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
	}

	if v := strings.TrimSpace(getenv("SQLEXPR_DRIVER")); v != "" {
		s.Driver = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		s.DSN = v
	}

	if o.driver != "" {
		s.Driver = o.driver
	}
	if o.dsn != "" {
		s.DSN = o.dsn
	}
	if o.autoQuote {
		s.AutoQuote = true
	}
	if o.verbose {
		s.logLevel = slog.LevelDebug
		s.LogQueries = true
	}
	if s.Driver == "" {
		s.Driver = "postgres"
	}
	return s, nil
}
