// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package metric exposes operational counters for the acquisition
// pipeline as Prometheus collectors, served on an optional debug
// listener. The counters mirror the per-session stats the controller
// keeps: they exist so a long bench run can be watched from outside
// the TUI.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds the acquisition pipeline's collectors. One instance
// is shared by all sessions of a process run.
type Pipeline struct {
	// LinesRead counts non-empty lines received from the transport.
	LinesRead prometheus.Counter

	// FramesCompleted counts frames emitted by the assembler.
	FramesCompleted prometheus.Counter

	// FramingResets counts buffer discards after the assembler's line
	// bound was exceeded without a boundary line.
	FramingResets prometheus.Counter

	// RecordsStored counts records durably appended to the log.
	RecordsStored prometheus.Counter

	// FramesDropped counts frames discarded by extraction, labeled by
	// reason ("missing_fields" or "malformed_value").
	FramesDropped *prometheus.CounterVec

	// TimestampRegressions counts records whose device timestamp ran
	// backwards within a session. A data-quality signal, not an error.
	TimestampRegressions prometheus.Counter

	// AppendSeconds observes the durable-write latency of the store.
	AppendSeconds prometheus.Histogram

	// TargetFlow mirrors the active session's setpoint, 0 when idle.
	TargetFlow prometheus.Gauge
}

// NewPipeline creates the pipeline collectors and registers them with
// the given registry.
func NewPipeline(registry *prometheus.Registry) *Pipeline {
	p := &Pipeline{
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowlog",
			Subsystem: "acquire",
			Name:      "lines_read_total",
			Help:      "Non-empty lines received from the transport.",
		}),
		FramesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowlog",
			Subsystem: "acquire",
			Name:      "frames_completed_total",
			Help:      "Frames emitted by the assembler.",
		}),
		FramingResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowlog",
			Subsystem: "acquire",
			Name:      "framing_resets_total",
			Help:      "Assembler buffer discards with no boundary line in bound.",
		}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowlog",
			Subsystem: "acquire",
			Name:      "records_stored_total",
			Help:      "Records durably appended to the log.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowlog",
			Subsystem: "acquire",
			Name:      "frames_dropped_total",
			Help:      "Frames discarded by extraction, by reason.",
		}, []string{"reason"}),
		TimestampRegressions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowlog",
			Subsystem: "acquire",
			Name:      "timestamp_regressions_total",
			Help:      "Records whose device timestamp ran backwards.",
		}),
		AppendSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowlog",
			Subsystem: "store",
			Name:      "append_seconds",
			Help:      "Durable append latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		TargetFlow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowlog",
			Subsystem: "acquire",
			Name:      "target_flow_ls",
			Help:      "Active session setpoint in l/s, 0 when idle.",
		}),
	}

	registry.MustRegister(
		p.LinesRead,
		p.FramesCompleted,
		p.FramingResets,
		p.RecordsStored,
		p.FramesDropped,
		p.TimestampRegressions,
		p.AppendSeconds,
		p.TargetFlow,
	)
	return p
}

// Nop returns a Pipeline whose collectors are live but unregistered.
// Sessions running without the debug listener use it so that the
// acquisition path never branches on metrics being enabled.
func Nop() *Pipeline {
	return NewPipeline(prometheus.NewRegistry())
}
