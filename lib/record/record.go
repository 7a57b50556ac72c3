// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package record

import "time"

// StoredTimestampLayout is the timestamp format used in the persisted
// log, distinct from the device's on-wire format.
const StoredTimestampLayout = "2006-01-02 15:04:05"

// DeviceTimestampLayout is the fixed two-digit day-month-year format
// the device prints at the start of each measurement burst.
const DeviceTimestampLayout = "02-01-06 15:04:05"

// Record is one validated flow-meter measurement. All fields are
// populated from a single frame except TargetFlow, which is the
// session parameter injected at extraction time.
type Record struct {
	// Timestamp is the device-reported wall-clock instant.
	Timestamp time.Time

	// TargetFlow is the operator-configured setpoint for the session,
	// in l/s. Constant for the lifetime of one acquisition run.
	TargetFlow float64

	// Up and Down are the raw upstream and downstream transit
	// readings. They are always reported together on one line.
	Up   float64
	Down float64

	// Quality is the device's integer quality flag for the reading.
	Quality int

	// Flow is the computed flow rate in l/s, the primary signal.
	Flow float64

	// Velocity and FilteredVelocity are auxiliary readings in m/s.
	Velocity         float64
	FilteredVelocity float64
}
