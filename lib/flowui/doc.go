// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package flowui is the live terminal display for an acquisition
// session. It polls the session's live buffer on a fixed cadence and
// renders the latest flow reading, a rolling average, the target
// setpoint, a sparkline of recent history, and the session's
// operational counters.
//
// The display is a pure consumer: it only ever snapshots the live
// buffer, so a slow or suspended terminal can never stall
// acquisition.
package flowui
