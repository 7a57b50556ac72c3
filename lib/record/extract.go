// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hydrolab/flowlog/lib/frame"
)

// Field patterns applied to every line of a frame. The velocity and
// filtered-velocity patterns are anchored to the start of the line so
// that "VEL:" does not also match inside "FVEL:".
var (
	timestampPattern        = regexp.MustCompile(`^\d{2}-\d{2}-\d{2} `)
	transitPattern          = regexp.MustCompile(`UP:([\d.]+),DN:([\d.]+),Q=(\d+)`)
	flowPattern             = regexp.MustCompile(`^FLOW:\s*([\d.]+)`)
	velocityPattern         = regexp.MustCompile(`^VEL:\s*([\d.]+)`)
	filteredVelocityPattern = regexp.MustCompile(`^FVEL:\s*([\d.]+)`)
)

// accumulator gathers optional field values during the fold over a
// frame's lines. Nil means the field's pattern has not matched yet.
type accumulator struct {
	timestamp        *time.Time
	up               *float64
	down             *float64
	quality          *int
	flow             *float64
	velocity         *float64
	filteredVelocity *float64
}

// Extract applies the five field patterns to every line of the frame,
// independently and in order, keeping the last match of each kind.
// targetFlow is the session parameter; it is injected into the record,
// never derived from the stream.
//
// Numeric text matched by a pattern but not coercible to the field's
// type returns a *MalformedValueError. A frame that leaves any of the
// seven fields unset returns a *MissingFieldsError naming exactly the
// absent fields. Either way the frame yields no record.
func Extract(completed frame.Frame, targetFlow float64) (Record, error) {
	var acc accumulator

	for _, raw := range completed {
		line := strings.TrimSpace(raw)

		if timestampPattern.MatchString(line) {
			parsed, err := time.Parse(DeviceTimestampLayout, line)
			if err != nil {
				return Record{}, &MalformedValueError{Field: FieldTimestamp, Text: line, Err: err}
			}
			acc.timestamp = &parsed
		}

		if match := transitPattern.FindStringSubmatch(line); match != nil {
			up, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				return Record{}, &MalformedValueError{Field: FieldUp, Text: match[1], Err: err}
			}
			down, err := strconv.ParseFloat(match[2], 64)
			if err != nil {
				return Record{}, &MalformedValueError{Field: FieldDown, Text: match[2], Err: err}
			}
			quality, err := strconv.Atoi(match[3])
			if err != nil {
				return Record{}, &MalformedValueError{Field: FieldQuality, Text: match[3], Err: err}
			}
			acc.up, acc.down, acc.quality = &up, &down, &quality
		}

		if value, err := matchDecimal(flowPattern, line, FieldFlow); err != nil {
			return Record{}, err
		} else if value != nil {
			acc.flow = value
		}

		if value, err := matchDecimal(velocityPattern, line, FieldVelocity); err != nil {
			return Record{}, err
		} else if value != nil {
			acc.velocity = value
		}

		if value, err := matchDecimal(filteredVelocityPattern, line, FieldFilteredVelocity); err != nil {
			return Record{}, err
		} else if value != nil {
			acc.filteredVelocity = value
		}
	}

	if missing := acc.missing(); len(missing) > 0 {
		return Record{}, &MissingFieldsError{Fields: missing}
	}

	return Record{
		Timestamp:        *acc.timestamp,
		TargetFlow:       targetFlow,
		Up:               *acc.up,
		Down:             *acc.down,
		Quality:          *acc.quality,
		Flow:             *acc.flow,
		Velocity:         *acc.velocity,
		FilteredVelocity: *acc.filteredVelocity,
	}, nil
}

// matchDecimal applies a single-capture decimal pattern to line.
// Returns (nil, nil) when the pattern does not match.
func matchDecimal(pattern *regexp.Regexp, line, field string) (*float64, error) {
	match := pattern.FindStringSubmatch(line)
	if match == nil {
		return nil, nil
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil, &MalformedValueError{Field: field, Text: match[1], Err: err}
	}
	return &value, nil
}

// missing lists the unset fields in persisted column order.
func (acc *accumulator) missing() []string {
	var fields []string
	if acc.timestamp == nil {
		fields = append(fields, FieldTimestamp)
	}
	if acc.up == nil {
		fields = append(fields, FieldUp)
	}
	if acc.down == nil {
		fields = append(fields, FieldDown)
	}
	if acc.quality == nil {
		fields = append(fields, FieldQuality)
	}
	if acc.flow == nil {
		fields = append(fields, FieldFlow)
	}
	if acc.velocity == nil {
		fields = append(fields, FieldVelocity)
	}
	if acc.filteredVelocity == nil {
		fields = append(fields, FieldFilteredVelocity)
	}
	return fields
}
