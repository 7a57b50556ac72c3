// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/hydrolab/flowlog/lib/record"
)

// Header is the fixed 8-column header row of the persisted log.
var Header = []string{
	"timestamp", "target_flow", "up", "down", "q",
	"flow_ls", "velocity_ms", "fvel_ms",
}

// Store is an append-only log of measurement records. Exactly one
// writer may hold an open Store for the lifetime of a session;
// concurrent appends from multiple writers are not supported.
type Store struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	closed bool
}

// Open opens the log at path for appending, creating it first if
// absent. The header row is written (and synced) only on creation,
// detected by a file-existence check prior to open; an existing file
// is never inspected or modified beyond appended rows.
func Open(path string) (*Store, error) {
	_, statErr := os.Stat(path)
	exists := statErr == nil

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	s := &Store{file: file, writer: csv.NewWriter(file)}

	if !exists {
		if err := s.writeRow(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("store: writing header: %w", err)
		}
	}

	return s, nil
}

// Append serializes one record as a row in the fixed column order,
// writes it, and forces the write to stable storage before returning.
func (s *Store) Append(r record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store: append on closed store")
	}
	if err := s.writeRow(encodeRow(r)); err != nil {
		return fmt.Errorf("store: appending row: %w", err)
	}
	return nil
}

// writeRow writes one CSV row, flushes the csv writer's buffer, and
// fsyncs the file. Callers hold s.mu (or have exclusive access during
// Open).
func (s *Store) writeRow(row []string) error {
	if err := s.writer.Write(row); err != nil {
		return err
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close releases the file handle. Closing an already-closed store is
// a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("store: closing log: %w", err)
	}
	return nil
}

// encodeRow serializes a record in the fixed column order. Floats use
// the shortest decimal representation that round-trips exactly.
func encodeRow(r record.Record) []string {
	return []string{
		r.Timestamp.Format(record.StoredTimestampLayout),
		formatFloat(r.TargetFlow),
		formatFloat(r.Up),
		formatFloat(r.Down),
		strconv.Itoa(r.Quality),
		formatFloat(r.Flow),
		formatFloat(r.Velocity),
		formatFloat(r.FilteredVelocity),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
