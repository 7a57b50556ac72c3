// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package acquire

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/hydrolab/flowlog/lib/clock"
	"github.com/hydrolab/flowlog/lib/livebuf"
	"github.com/hydrolab/flowlog/lib/serial"
	"github.com/hydrolab/flowlog/lib/store"
	"github.com/hydrolab/flowlog/lib/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// burst returns one complete five-line measurement burst with the
// given second and flow value.
func burst(second int, flow string) []string {
	return []string{
		time.Date(2024, 1, 1, 12, 0, second, 0, time.UTC).Format("02-01-06 15:04:05"),
		"UP:10.2,DN:9.8,Q=3",
		"FLOW: " + flow,
		"VEL: 0.44",
		"FVEL: 0.41",
	}
}

func testConfig(t *testing.T, script *serial.Script) (Config, *livebuf.Buffer, string) {
	t.Helper()
	live := livebuf.New(0)
	logPath := filepath.Join(t.TempDir(), "flow_log.csv")
	return Config{
		TargetFlow: 1.5,
		OpenSource: func() (serial.LineSource, error) { return script, nil },
		LogPath:    logPath,
		Live:       live,
		Clock:      clock.Real(),
		Logger:     discardLogger(),
	}, live, logPath
}

// waitForStats polls until cond is true or the deadline passes.
func waitForStats(t *testing.T, c *Controller, cond func(Stats) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond(c.Stats()) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for stats, last: %+v", c.Stats())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSessionStoresAndPublishesRecords(t *testing.T) {
	t.Parallel()

	var lines []string
	lines = append(lines, burst(0, "1.523")...)
	lines = append(lines, burst(1, "1.530")...)
	script := serial.NewScript(lines...)

	cfg, live, logPath := testConfig(t, script)
	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(context.Background()) }()

	waitForStats(t, controller, func(s Stats) bool { return s.RecordsStored == 2 })
	controller.Stop()

	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "session end"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := controller.State(); got != StateIdle {
		t.Errorf("State after Run: got %v, want idle", got)
	}
	if !script.Closed() {
		t.Error("source not closed at session end")
	}

	records, err := store.ReadLog(logPath)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stored records: got %d, want 2", len(records))
	}
	if records[0].Flow != 1.523 || records[1].Flow != 1.530 {
		t.Errorf("stored flows: got %v, %v, want 1.523, 1.53", records[0].Flow, records[1].Flow)
	}
	if records[0].TargetFlow != 1.5 {
		t.Errorf("TargetFlow: got %v, want 1.5", records[0].TargetFlow)
	}

	samples := live.Snapshot()
	if len(samples) != 2 {
		t.Fatalf("live samples: got %d, want 2", len(samples))
	}
	if samples[0].Value != 1.523 || samples[1].Value != 1.530 {
		t.Errorf("live values: got %v, %v, want 1.523, 1.53", samples[0].Value, samples[1].Value)
	}
}

func TestIncompleteFrameDroppedSessionContinues(t *testing.T) {
	t.Parallel()

	// First burst lacks its VEL line; the second is complete.
	incomplete := []string{
		"01-01-24 12:00:00",
		"UP:10.2,DN:9.8,Q=3",
		"FLOW: 1.523",
		"FVEL: 0.41",
	}
	lines := append(incomplete, burst(1, "1.530")...)
	script := serial.NewScript(lines...)

	cfg, live, logPath := testConfig(t, script)
	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(context.Background()) }()

	waitForStats(t, controller, func(s Stats) bool { return s.RecordsStored == 1 })
	controller.Stop()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "session end"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stats := controller.Stats()
	if stats.FramesCompleted != 2 {
		t.Errorf("FramesCompleted: got %d, want 2", stats.FramesCompleted)
	}
	if stats.FramesDropped != 1 {
		t.Errorf("FramesDropped: got %d, want 1", stats.FramesDropped)
	}

	// The dropped frame reached neither the store nor the live buffer.
	records, err := store.ReadLog(logPath)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("stored records: got %d, want 1", len(records))
	}
	if records[0].Flow != 1.530 {
		t.Errorf("stored flow: got %v, want 1.53", records[0].Flow)
	}
	if got := live.Len(); got != 1 {
		t.Errorf("live samples: got %d, want 1", got)
	}
}

func TestEmptyReadsRetriedWithoutFailing(t *testing.T) {
	t.Parallel()

	script := serial.NewScript(burst(0, "1.523")...)
	script.EmptyEvery = 2 // every other read times out

	cfg, _, _ := testConfig(t, script)
	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(context.Background()) }()

	waitForStats(t, controller, func(s Stats) bool { return s.RecordsStored == 1 })
	controller.Stop()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "session end"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestTransportErrorFatal(t *testing.T) {
	t.Parallel()

	script := serial.NewScript(burst(0, "1.523")...)
	script.FinalErr = errors.New("device unplugged")

	cfg, _, logPath := testConfig(t, script)
	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runErr := controller.Run(context.Background())
	if !errors.Is(runErr, ErrTransport) {
		t.Fatalf("Run: got %v, want ErrTransport", runErr)
	}
	if got := controller.State(); got != StateIdle {
		t.Errorf("State after fatal error: got %v, want idle", got)
	}
	if !script.Closed() {
		t.Error("source not closed after fatal error")
	}

	// Everything appended before the failure survived.
	records, err := store.ReadLog(logPath)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("stored records: got %d, want 1", len(records))
	}
}

func TestStoreOpenFailureFatal(t *testing.T) {
	t.Parallel()

	script := serial.NewScript()
	cfg, _, _ := testConfig(t, script)
	cfg.LogPath = filepath.Join(t.TempDir(), "missing", "nested", "flow_log.csv")

	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runErr := controller.Run(context.Background())
	if !errors.Is(runErr, ErrStore) {
		t.Fatalf("Run: got %v, want ErrStore", runErr)
	}
	if !script.Closed() {
		t.Error("source not closed after store open failure")
	}
}

func TestContextCancellationStopsSession(t *testing.T) {
	t.Parallel()

	script := serial.NewScript(burst(0, "1.523")...)
	cfg, _, _ := testConfig(t, script)
	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(ctx) }()

	waitForStats(t, controller, func(s Stats) bool { return s.RecordsStored == 1 })
	cancel()

	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "session end"); err != nil {
		t.Errorf("Run after cancel: got %v, want nil", err)
	}
}

func TestTimestampRegressionCountedNotRejected(t *testing.T) {
	t.Parallel()

	var lines []string
	lines = append(lines, burst(30, "1.523")...)
	lines = append(lines, burst(10, "1.530")...) // clock ran backwards
	script := serial.NewScript(lines...)

	cfg, _, logPath := testConfig(t, script)
	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(context.Background()) }()

	waitForStats(t, controller, func(s Stats) bool { return s.RecordsStored == 2 })
	controller.Stop()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "session end"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := controller.Stats().TimestampRegressions; got != 1 {
		t.Errorf("TimestampRegressions: got %d, want 1", got)
	}
	records, err := store.ReadLog(logPath)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("stored records: got %d, want 2 (regressed record kept)", len(records))
	}
}

func TestFramingResetRecovers(t *testing.T) {
	t.Parallel()

	// Noise with no boundary line overflows a small assembler bound,
	// then a clean burst follows.
	lines := []string{"NOISE 1", "NOISE 2", "NOISE 3", "NOISE 4", "NOISE 5"}
	lines = append(lines, burst(0, "1.523")...)
	script := serial.NewScript(lines...)

	cfg, _, _ := testConfig(t, script)
	cfg.MaxFrameLines = 5
	controller, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(context.Background()) }()

	waitForStats(t, controller, func(s Stats) bool { return s.RecordsStored == 1 })
	controller.Stop()
	if err := testutil.RequireReceive(t, runDone, 5*time.Second, "session end"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := controller.Stats().FramingResets; got != 1 {
		t.Errorf("FramingResets: got %d, want 1", got)
	}
}
