// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package livebuf provides the bounded, thread-safe sample buffer that
// hands recent measurements from the acquisition loop to a display
// consumer.
//
// The acquisition loop is the sole writer; any number of readers may
// take snapshots on their own schedule. Readers never block the writer
// beyond the short critical section of a mutex, and a snapshot never
// observes a torn pair: every (timestamp, value) it contains was
// produced by a single Push call.
package livebuf

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the buffer for long-running sessions. At one
// measurement per second, 7200 samples is two hours of live history,
// far more than any display renders.
const DefaultCapacity = 7200

// Sample is one (timestamp, value) pair pushed by the pipeline.
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// Buffer is a bounded sequence of samples. When full, Push evicts the
// oldest sample, so the buffer always holds the most recent history.
type Buffer struct {
	mu       sync.Mutex
	samples  []Sample
	start    int // index of the oldest sample when the buffer is full
	capacity int
}

// New creates a buffer holding at most capacity samples. A
// non-positive capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Push appends a sample, evicting the oldest when the buffer is at
// capacity. The critical section is a single index update and slot
// write regardless of buffer size.
func (b *Buffer) Push(timestamp time.Time, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sample := Sample{Timestamp: timestamp, Value: value}
	if len(b.samples) < b.capacity {
		b.samples = append(b.samples, sample)
		return
	}
	b.samples[b.start] = sample
	b.start = (b.start + 1) % b.capacity
}

// Snapshot returns a copy of the buffered samples in push order,
// oldest first. Safe to iterate while Push continues concurrently.
// Returns an empty slice before the first push.
func (b *Buffer) Snapshot() []Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := make([]Sample, len(b.samples))
	n := copy(snapshot, b.samples[b.start:])
	copy(snapshot[n:], b.samples[:b.start])
	return snapshot
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
