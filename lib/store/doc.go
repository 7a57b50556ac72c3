// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists measurement records to an append-only CSV
// log and reads them back for offline reporting.
//
// The log format is one header plus one row per record:
//
//	timestamp,target_flow,up,down,q,flow_ls,velocity_ms,fvel_ms
//	2024-01-01 12:00:00,1.5,10.2,9.8,3,1.523,0.44,0.41
//
// The header is written exactly once, when the file did not previously
// exist; reopening an existing log appends without touching its
// content. Every append is forced to stable storage before it returns:
// a crash immediately after Append must not lose the row.
package store
