package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	svscan "github.com/axondata/go-svscan"
)

// defaultLogLevel is the log level used when neither flag nor config file
// sets one
const defaultLogLevel = "info"

// config is the resolved driver configuration
type config struct {
	Dir      string
	Interval time.Duration
	Watch    bool
	LogLevel string
}

// fileConfig is the YAML shape of a config file. The interval is a string
// in time.ParseDuration syntax; pointer fields distinguish "unset" from
// zero values so the file only overrides what it mentions.
type fileConfig struct {
	Dir      string  `yaml:"dir"`
	Interval string  `yaml:"interval"`
	Watch    *bool   `yaml:"watch"`
	LogLevel *string `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		Interval: svscan.DefaultScanInterval,
		LogLevel: defaultLogLevel,
	}
}

// loadConfig reads and validates a YAML config file. Unknown keys are
// rejected so typos surface instead of being silently ignored.
func loadConfig(path string) (fileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("opening config: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var fc fileConfig
	if err := dec.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("parsing config %q: %w", path, err)
	}

	if fc.Interval != "" {
		if _, err := time.ParseDuration(fc.Interval); err != nil {
			return fileConfig{}, fmt.Errorf("parsing config %q: interval: %w", path, err)
		}
	}

	return fc, nil
}

// merge applies the file values on top of c and returns the result
func (c config) merge(fc fileConfig) config {
	if fc.Dir != "" {
		c.Dir = fc.Dir
	}
	if fc.Interval != "" {
		// validated by loadConfig
		c.Interval, _ = time.ParseDuration(fc.Interval)
	}
	if fc.Watch != nil {
		c.Watch = *fc.Watch
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	return c
}

// parseLevel maps a level name to a slog.Level
func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
