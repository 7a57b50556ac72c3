// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package serial

// LineSource yields raw text lines from the transport.
//
// Implementations configure their read timeout at open. ReadLine
// returning ("", nil) means no complete line arrived within that
// timeout, a normal occurrence on a live serial stream, retried by
// the caller. A non-nil error means the transport failed irrecoverably
// and the session must end.
type LineSource interface {
	// ReadLine returns the next line with trailing CR/LF trimmed, or
	// an empty string when the read timed out.
	ReadLine() (string, error)

	// Close releases the transport. Safe to call more than once.
	Close() error
}
