// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowlog.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	t.Parallel()
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
serial:
  device: /dev/ttyACM3
  baud_rate: 19200
log_path: /var/lib/flowlog/flow_log.csv
poll_interval: 250ms
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyACM3" {
		t.Errorf("Device: got %q", cfg.Serial.Device)
	}
	if cfg.Serial.BaudRate != 19200 {
		t.Errorf("BaudRate: got %d", cfg.Serial.BaudRate)
	}
	// Unspecified fields keep their defaults.
	if cfg.Serial.ReadTimeout != "1s" {
		t.Errorf("ReadTimeout: got %q, want default 1s", cfg.Serial.ReadTimeout)
	}
	if got := cfg.PollEvery(); got != 250*time.Millisecond {
		t.Errorf("PollEvery: got %v, want 250ms", got)
	}
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "poll_interval: fast\n")

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile: got nil, want duration parse error")
	}
}

func TestValidateRejectsEmptyDevice(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Serial.Device = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate: got nil, want error for empty device")
	}
}

func TestLoadWithoutEnvReturnsDefaults(t *testing.T) {
	// Mutates the environment; not parallel.
	t.Setenv("FLOWLOG_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogPath != "flow_log.csv" {
		t.Errorf("LogPath: got %q, want default", cfg.LogPath)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "pol_interval: 250ms\n")

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile: got nil, want unknown-key error for typo")
	}
}
