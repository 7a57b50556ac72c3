// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package record defines the measurement record, the unit of truth
// for the acquisition pipeline, and the field extractor that builds
// one from a completed frame.
//
// The flow meter reports each measurement as a burst of lines:
//
//	01-01-24 12:00:00
//	UP:10.2,DN:9.8,Q=3
//	FLOW: 1.523
//	VEL: 0.44
//	FVEL: 0.41
//
// Extraction folds five patterns over every line of a frame. Later
// matches override earlier ones, so a frame polluted with stale lines
// (stream started mid-burst) still yields the newest values. A record
// is complete only when all seven fields were populated from the same
// frame; partial records are never produced.
package record
