// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package acquire drives one acquisition session: it wires the line
// source through the frame assembler and field extractor into the
// record store and the live buffer, and owns the session lifecycle.
//
// One Controller is one session, bound to a single target flow. Run
// blocks for the session's lifetime and ends in one of two ways: a
// cooperative Stop (returns nil) or a fatal transport/store failure
// (returns the error). Parse-level noise (framing resets, incomplete
// or malformed frames) never ends a session; it is counted, logged,
// and acquisition continues.
//
// The acquisition loop blocks only on the transport's bounded read
// and the store's durable write. The display consumer reads the live
// buffer on its own schedule and can never stall the loop.
package acquire
