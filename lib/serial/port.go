// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package serial

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// PortConfig holds the parameters for opening a serial device.
type PortConfig struct {
	// Device is the device node, e.g. /dev/ttyUSB0.
	Device string

	// BaudRate is the line speed in bits per second. Must be one of
	// the standard POSIX rates (9600, 19200, ..., 115200).
	BaudRate int

	// ReadTimeout bounds a single ReadLine call. Granularity is a
	// tenth of a second (the termios VTIME unit); values round up.
	// Defaults to one second if zero.
	ReadTimeout time.Duration
}

// baudFlags maps supported baud rates to their termios constants.
var baudFlags = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// Port is a LineSource backed by a POSIX serial device in raw mode.
// Reads are bounded by the configured timeout via VMIN=0/VTIME, so a
// silent device never blocks the acquisition loop indefinitely.
//
// ReadLine is single-caller (the acquisition loop); Close may be
// called from another goroutine and is idempotent.
type Port struct {
	fd      int
	device  string
	pending bytes.Buffer

	closeMu sync.Mutex
	closed  bool
}

// OpenPort opens and configures the serial device. The port is placed
// in raw mode: no echo, no line editing, no flow control, 8 data bits.
func OpenPort(cfg PortConfig) (*Port, error) {
	baud, ok := baudFlags[cfg.BaudRate]
	if !ok {
		return nil, fmt.Errorf("serial: unsupported baud rate %d", cfg.BaudRate)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	// VTIME counts tenths of a second, minimum one.
	deciseconds := (timeout + 99*time.Millisecond) / (100 * time.Millisecond)
	if deciseconds < 1 {
		deciseconds = 1
	}
	if deciseconds > 255 {
		deciseconds = 255
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: opening %s: %w", cfg.Device, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: reading termios for %s: %w", cfg.Device, err)
	}

	// Raw mode, 8N1, receiver enabled, modem control lines ignored.
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | baud
	termios.Ispeed = baud
	termios.Ospeed = baud
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = uint8(deciseconds)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: configuring %s: %w", cfg.Device, err)
	}

	// Discard whatever accumulated in the driver buffer before the
	// session started; a partial line there would pollute the first
	// frame.
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: flushing %s: %w", cfg.Device, err)
	}

	return &Port{fd: fd, device: cfg.Device}, nil
}

// ReadLine returns the next complete line from the device, or an
// empty string if none arrived within the read timeout. Trailing CR
// and LF are trimmed.
func (p *Port) ReadLine() (string, error) {
	for {
		if line, ok := p.takeLine(); ok {
			return line, nil
		}

		chunk := make([]byte, 256)
		n, err := unix.Read(p.fd, chunk)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("serial: reading %s: %w", p.device, err)
		}
		if n == 0 {
			// VTIME expired with no data: an empty read, not EOF.
			return "", nil
		}
		p.pending.Write(chunk[:n])
	}
}

// takeLine extracts one complete line from the pending buffer.
func (p *Port) takeLine() (string, bool) {
	raw := p.pending.Bytes()
	index := bytes.IndexByte(raw, '\n')
	if index < 0 {
		return "", false
	}
	line := string(raw[:index])
	p.pending.Next(index + 1)
	return strings.TrimRight(line, "\r"), true
}

// Close releases the device. Idempotent.
func (p *Port) Close() error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if err := unix.Close(p.fd); err != nil {
		return fmt.Errorf("serial: closing %s: %w", p.device, err)
	}
	return nil
}
