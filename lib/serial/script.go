// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package serial

import (
	"sync"
	"time"
)

// Script is an in-memory LineSource for tests. It plays back a fixed
// sequence of lines, then either returns empty reads (device gone
// quiet) or a configured terminal error (transport failure).
//
// Safe for the usual split: one goroutine calling ReadLine, another
// calling Close.
type Script struct {
	mu    sync.Mutex
	lines []string
	index int

	// FinalErr, when non-nil, is returned by every ReadLine after the
	// scripted lines are exhausted. When nil, exhausted reads return
	// empty lines instead.
	FinalErr error

	// EmptyEvery injects an empty (timed-out) read before every Nth
	// line when positive, exercising the caller's retry path.
	EmptyEvery int

	reads  int
	closed bool
}

// NewScript creates a script that plays back lines in order.
func NewScript(lines ...string) *Script {
	return &Script{lines: lines}
}

// ReadLine returns the next scripted line. Exhausted scripts return
// ("", nil) or FinalErr. A closed script always returns empty reads,
// matching a real port whose descriptor the session already released.
func (s *Script) ReadLine() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", nil
	}

	s.reads++
	if s.EmptyEvery > 0 && s.reads%s.EmptyEvery == 0 {
		return "", nil
	}

	if s.index >= len(s.lines) {
		if s.FinalErr != nil {
			return "", s.FinalErr
		}
		// Simulate the VTIME pause so exhausted scripts do not make
		// the acquisition loop spin hot while a test shuts it down.
		s.mu.Unlock()
		time.Sleep(time.Millisecond)
		s.mu.Lock()
		return "", nil
	}

	line := s.lines[s.index]
	s.index++
	return line, nil
}

// Close marks the script closed. Idempotent.
func (s *Script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *Script) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
