// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the flowlog
// commands. The raw stderr writes that happen before the structured
// logger is initialized live here.
package process
