// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"strings"
)

// Field names as they appear in MissingFieldsError, in the persisted
// column order.
const (
	FieldTimestamp        = "timestamp"
	FieldUp               = "up"
	FieldDown             = "down"
	FieldQuality          = "q"
	FieldFlow             = "flow"
	FieldVelocity         = "velocity"
	FieldFilteredVelocity = "filtered_velocity"
)

// MissingFieldsError reports a frame that matched fewer than the five
// required pattern kinds. Fields lists exactly the absent fields in
// column order. Frames producing this error are dropped whole; no
// partial record is ever emitted.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("record: frame missing fields: %s", strings.Join(e.Fields, ", "))
}

// MalformedValueError reports a line that matched a field pattern but
// whose captured text could not be coerced to the field's type. This
// is distinct from a missing field: the device printed something
// recognizable but corrupt, so the whole frame is suspect.
type MalformedValueError struct {
	Field string
	Text  string
	Err   error
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("record: malformed %s value %q: %v", e.Field, e.Text, e.Err)
}

func (e *MalformedValueError) Unwrap() error { return e.Err }
