// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for a flowlog deployment. Durations are
// written as Go duration strings ("1s", "500ms") in the file.
type Config struct {
	// Serial configures the transport to the flow meter.
	Serial SerialConfig `yaml:"serial"`

	// LogPath is the persisted measurement log. Created on first use;
	// subsequent sessions append.
	// Default: flow_log.csv
	LogPath string `yaml:"log_path"`

	// PollInterval is the live display's refresh cadence.
	// Default: 500ms
	PollInterval string `yaml:"poll_interval"`

	// LiveCapacity bounds the live sample buffer. Zero selects the
	// built-in default.
	LiveCapacity int `yaml:"live_capacity"`

	// MaxFrameLines bounds the frame assembler's buffer. Zero selects
	// the built-in default.
	MaxFrameLines int `yaml:"max_frame_lines"`

	// MetricsAddress, when set, serves Prometheus metrics on this
	// address (e.g. "localhost:9590"). Empty disables the listener.
	MetricsAddress string `yaml:"metrics_address"`
}

// SerialConfig configures the serial transport.
type SerialConfig struct {
	// Device is the serial device node.
	// Default: /dev/ttyUSB0
	Device string `yaml:"device"`

	// BaudRate is the line speed. Must be a standard POSIX rate.
	// Default: 9600
	BaudRate int `yaml:"baud_rate"`

	// ReadTimeout bounds one line read.
	// Default: 1s
	ReadTimeout string `yaml:"read_timeout"`
}

// Default returns the default configuration, matching a typical
// single-meter bench setup.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:      "/dev/ttyUSB0",
			BaudRate:    9600,
			ReadTimeout: "1s",
		},
		LogPath:      "flow_log.csv",
		PollInterval: "500ms",
	}
}

// Load loads configuration from the FLOWLOG_CONFIG environment
// variable, or returns the defaults when it is not set.
func Load() (*Config, error) {
	path := os.Getenv("FLOWLOG_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging over
// the defaults. Unknown keys are rejected: a typo in a bench config
// should fail loudly, not silently fall back to a default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values and duration syntax.
func (c *Config) Validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("serial.device must not be empty")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}
	if c.LogPath == "" {
		return fmt.Errorf("log_path must not be empty")
	}
	if _, err := time.ParseDuration(c.Serial.ReadTimeout); err != nil {
		return fmt.Errorf("serial.read_timeout: %w", err)
	}
	interval, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return fmt.Errorf("poll_interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.LiveCapacity < 0 {
		return fmt.Errorf("live_capacity must not be negative, got %d", c.LiveCapacity)
	}
	if c.MaxFrameLines < 0 {
		return fmt.Errorf("max_frame_lines must not be negative, got %d", c.MaxFrameLines)
	}
	return nil
}

// ReadTimeout returns the parsed serial read timeout. Call Validate
// first; invalid syntax falls back to one second here.
func (c *Config) ReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Serial.ReadTimeout)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// PollEvery returns the parsed display poll interval. Call Validate
// first; invalid syntax falls back to 500ms here.
func (c *Config) PollEvery() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
