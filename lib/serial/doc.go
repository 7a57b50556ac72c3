// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package serial abstracts the line-oriented transport the flow meter
// speaks over.
//
// LineSource is the boundary the acquisition pipeline reads from: a
// lazy sequence of text lines where an expired read timeout yields an
// empty line, not an error. Port implements it for POSIX serial
// devices, configuring raw mode and baud rate via termios. Script
// implements it in memory for tests.
package serial
