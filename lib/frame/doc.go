// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame reassembles multi-line measurement frames from the
// flow meter's line-oriented serial protocol.
//
// The device reports each measurement as a burst of lines ending with
// the filtered-velocity line ("FVEL: ..."). There is no start-of-frame
// marker: the assembler buffers every non-blank line it is fed and
// emits the accumulated buffer as a complete frame when it sees the
// boundary line.
//
// A consequence of the missing start marker: if acquisition begins in
// the middle of a measurement burst, the tail of that burst is buffered
// together with the following full burst and both land in the first
// emitted frame. Extraction's last-match-wins rule means the stale
// lines are overridden by the fresh ones, so the first record is still
// taken from the newest burst.
package frame
