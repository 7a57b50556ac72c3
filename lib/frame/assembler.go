// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"fmt"
	"strings"
)

// DefaultMaxLines is the default bound on buffered lines per frame. A
// healthy device emits five lines per measurement; 64 leaves generous
// headroom for chatter while still catching a stream that never
// produces a boundary line.
const DefaultMaxLines = 64

// boundaryPrefix marks the final line of a measurement burst. The
// filtered-velocity report is always the last line the device prints
// for one measurement, so its arrival completes the frame.
const boundaryPrefix = "FVEL"

// Frame is the ordered sequence of raw lines collected between two
// consecutive boundary lines, boundary included.
type Frame []string

// FramingError reports that the assembler's line bound was exceeded
// without a boundary line. The assembler has already reset itself when
// this error is returned; feeding may continue.
type FramingError struct {
	// Discarded is the number of buffered lines that were dropped.
	Discarded int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("frame: no boundary line within %d lines, buffer discarded", e.Discarded)
}

// Assembler buffers successive lines between frame boundaries. It is
// not safe for concurrent use; the acquisition loop is its only
// caller.
type Assembler struct {
	buffer   []string
	maxLines int
}

// NewAssembler creates an assembler with the given line bound. A
// non-positive maxLines selects DefaultMaxLines.
func NewAssembler(maxLines int) *Assembler {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Assembler{maxLines: maxLines}
}

// Feed appends line to the current buffer. When line is a boundary
// line, Feed returns the accumulated buffer as a completed Frame and
// resets the internal buffer. Blank (all-whitespace) lines are
// ignored: not buffered, never a boundary.
//
// If the buffer grows past the configured bound without a boundary
// line, Feed discards the buffer and returns a *FramingError. The
// assembler is immediately usable again.
func (a *Assembler) Feed(line string) (Frame, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	a.buffer = append(a.buffer, line)

	if strings.HasPrefix(line, boundaryPrefix) {
		completed := Frame(a.buffer)
		a.buffer = nil
		return completed, nil
	}

	if len(a.buffer) >= a.maxLines {
		discarded := len(a.buffer)
		a.buffer = nil
		return nil, &FramingError{Discarded: discarded}
	}

	return nil, nil
}

// Pending returns the number of lines buffered toward the next frame.
func (a *Assembler) Pending() int {
	return len(a.buffer)
}

// Reset discards any buffered lines.
func (a *Assembler) Reset() {
	a.buffer = nil
}
