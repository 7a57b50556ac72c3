// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hydrolab/flowlog/lib/clock"
	"github.com/hydrolab/flowlog/lib/frame"
	"github.com/hydrolab/flowlog/lib/livebuf"
	"github.com/hydrolab/flowlog/lib/metric"
	"github.com/hydrolab/flowlog/lib/record"
	"github.com/hydrolab/flowlog/lib/serial"
	"github.com/hydrolab/flowlog/lib/store"
)

// Session-ending error kinds. Fatal errors returned by Run wrap one of
// these so callers can distinguish the failing resource with errors.Is.
var (
	// ErrTransport marks an irrecoverable line source failure.
	ErrTransport = errors.New("transport failure")

	// ErrStore marks a failed durable append. The durability contract
	// cannot be guaranteed past this point, so the session ends.
	ErrStore = errors.New("store failure")
)

// State is the controller's lifecycle phase.
type State int32

const (
	// StateIdle means no source or store is open. Both the initial
	// and the terminal state of a session.
	StateIdle State = iota
	// StateRunning means the acquisition loop is reading lines.
	StateRunning
	// StateStopping means the loop has observed the stop signal and
	// is releasing the source and store.
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Stats are the session's operational counters, readable at any time
// from any goroutine.
type Stats struct {
	LinesRead            uint64
	FramesCompleted      uint64
	FramingResets        uint64
	RecordsStored        uint64
	FramesDropped        uint64
	TimestampRegressions uint64
}

// Config holds the parameters for one acquisition session.
type Config struct {
	// TargetFlow is the session setpoint in l/s, attached to every
	// record. Never derived from the stream.
	TargetFlow float64

	// OpenSource opens the transport when the session starts. The
	// session owns the returned source and closes it on exit.
	OpenSource func() (serial.LineSource, error)

	// LogPath is the persisted log location. The store is opened in
	// append mode when the session starts and closed after the
	// source, so an in-flight append is never lost to shutdown.
	LogPath string

	// Live receives one (timestamp, flow) pair per stored record.
	Live *livebuf.Buffer

	// MaxFrameLines bounds the assembler's buffer. Zero selects
	// frame.DefaultMaxLines.
	MaxFrameLines int

	// Metrics mirrors the session counters to Prometheus. Optional;
	// nil selects unregistered collectors.
	Metrics *metric.Pipeline

	// Clock provides append latency timing. Required.
	Clock clock.Clock

	// Logger receives operational messages. Required.
	Logger *slog.Logger
}

// Controller runs one acquisition session. Create one per session
// with New; a Controller is not reusable after Run returns.
type Controller struct {
	cfg     Config
	metrics *metric.Pipeline

	state atomic.Int32

	stopOnce sync.Once
	stop     chan struct{}

	linesRead            atomic.Uint64
	framesCompleted      atomic.Uint64
	framingResets        atomic.Uint64
	recordsStored        atomic.Uint64
	framesDropped        atomic.Uint64
	timestampRegressions atomic.Uint64
}

// New validates the configuration and creates an idle controller.
func New(cfg Config) (*Controller, error) {
	if cfg.OpenSource == nil {
		return nil, fmt.Errorf("acquire: OpenSource is required")
	}
	if cfg.LogPath == "" {
		return nil, fmt.Errorf("acquire: LogPath is required")
	}
	if cfg.Live == nil {
		return nil, fmt.Errorf("acquire: Live buffer is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("acquire: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("acquire: Logger is required")
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.Nop()
	}

	return &Controller{
		cfg:     cfg,
		metrics: metrics,
		stop:    make(chan struct{}),
	}, nil
}

// State returns the controller's current lifecycle phase.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Stats returns a snapshot of the session counters.
func (c *Controller) Stats() Stats {
	return Stats{
		LinesRead:            c.linesRead.Load(),
		FramesCompleted:      c.framesCompleted.Load(),
		FramingResets:        c.framingResets.Load(),
		RecordsStored:        c.recordsStored.Load(),
		FramesDropped:        c.framesDropped.Load(),
		TimestampRegressions: c.timestampRegressions.Load(),
	}
}

// Stop requests a cooperative shutdown. The acquisition loop observes
// the signal at its next line-read boundary; it does not preempt a
// read already blocked in the transport, whose own timeout bounds the
// wait. Idempotent and safe from any goroutine.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Run executes the session: open source and store, loop until stopped
// or a fatal error, release resources, return. A cooperative stop
// (Stop or ctx cancellation) returns nil; an irrecoverable transport
// or store failure returns an error wrapping ErrTransport or ErrStore.
func (c *Controller) Run(ctx context.Context) error {
	source, err := c.cfg.OpenSource()
	if err != nil {
		return fmt.Errorf("acquire: opening source: %w: %w", ErrTransport, err)
	}

	log, err := store.Open(c.cfg.LogPath)
	if err != nil {
		source.Close()
		return fmt.Errorf("acquire: opening store: %w: %w", ErrStore, err)
	}

	c.state.Store(int32(StateRunning))
	c.metrics.TargetFlow.Set(c.cfg.TargetFlow)
	c.cfg.Logger.Info("session started",
		"target_flow", c.cfg.TargetFlow,
		"log_path", c.cfg.LogPath,
	)

	fatal := c.loop(ctx, source, log)

	// Stopping: source first, then store, so a row appended just
	// before the stop signal is on disk before the handle goes away.
	c.state.Store(int32(StateStopping))
	if err := source.Close(); err != nil {
		c.cfg.Logger.Error("closing source", "error", err)
	}
	if err := log.Close(); err != nil {
		c.cfg.Logger.Error("closing store", "error", err)
	}
	c.metrics.TargetFlow.Set(0)
	c.state.Store(int32(StateIdle))

	stats := c.Stats()
	c.cfg.Logger.Info("session ended",
		"records_stored", stats.RecordsStored,
		"frames_dropped", stats.FramesDropped,
		"framing_resets", stats.FramingResets,
		"timestamp_regressions", stats.TimestampRegressions,
		"fatal", fatal != nil,
	)
	return fatal
}

// loop is the acquisition read loop. Returns nil on cooperative stop,
// or the fatal error that ended the session.
func (c *Controller) loop(ctx context.Context, source serial.LineSource, log *store.Store) error {
	assembler := frame.NewAssembler(c.cfg.MaxFrameLines)
	var lastTimestamp *record.Record

	for {
		select {
		case <-c.stop:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := source.ReadLine()
		if err != nil {
			return fmt.Errorf("acquire: reading line: %w: %w", ErrTransport, err)
		}
		if line == "" {
			// Timed-out read: normal on a quiet device, retry.
			continue
		}
		c.linesRead.Add(1)
		c.metrics.LinesRead.Inc()

		completed, err := assembler.Feed(line)
		if err != nil {
			var framingError *frame.FramingError
			if errors.As(err, &framingError) {
				c.framingResets.Add(1)
				c.metrics.FramingResets.Inc()
				c.cfg.Logger.Warn("framing reset", "discarded_lines", framingError.Discarded)
				continue
			}
			return fmt.Errorf("acquire: assembling frame: %w", err)
		}
		if completed == nil {
			continue
		}
		c.framesCompleted.Add(1)
		c.metrics.FramesCompleted.Inc()

		measurement, err := record.Extract(completed, c.cfg.TargetFlow)
		if err != nil {
			c.dropFrame(err)
			continue
		}

		if lastTimestamp != nil && measurement.Timestamp.Before(lastTimestamp.Timestamp) {
			// Data-quality signal only: the record is still stored.
			c.timestampRegressions.Add(1)
			c.metrics.TimestampRegressions.Inc()
			c.cfg.Logger.Warn("device timestamp regressed",
				"previous", lastTimestamp.Timestamp,
				"current", measurement.Timestamp,
			)
		}
		lastTimestamp = &measurement

		appendStart := c.cfg.Clock.Now()
		if err := log.Append(measurement); err != nil {
			return fmt.Errorf("acquire: appending record: %w: %w", ErrStore, err)
		}
		c.metrics.AppendSeconds.Observe(c.cfg.Clock.Now().Sub(appendStart).Seconds())
		c.recordsStored.Add(1)
		c.metrics.RecordsStored.Inc()

		c.cfg.Live.Push(measurement.Timestamp, measurement.Flow)
	}
}

// dropFrame records an extraction failure. Dropped frames are normal
// noise on a live serial stream; they are logged at debug level and
// never surfaced individually.
func (c *Controller) dropFrame(err error) {
	c.framesDropped.Add(1)

	reason := "malformed_value"
	var missing *record.MissingFieldsError
	if errors.As(err, &missing) {
		reason = "missing_fields"
	}
	c.metrics.FramesDropped.WithLabelValues(reason).Inc()
	c.cfg.Logger.Debug("frame dropped", "reason", reason, "error", err)
}
