// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/hydrolab/flowlog/lib/record"
)

// ReadLog reads a persisted log back into records. Paths ending in
// ".gz" are decompressed transparently, so archived logs can be fed to
// the report tool without unpacking.
func ReadLog(path string) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		decompressor, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("store: decompressing %s: %w", path, err)
		}
		defer decompressor.Close()
		reader = decompressor
	}

	records, err := ReadLogFrom(reader)
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", path, err)
	}
	return records, nil
}

// ReadLogFrom parses log rows from r. The first row must be the
// header; it is validated against the fixed schema and skipped.
func ReadLogFrom(r io.Reader) ([]record.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty log: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, column := range Header {
		if header[i] != column {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], column)
		}
	}

	var records []record.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		parsed, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, parsed)
	}
}

// decodeRow parses one data row in the fixed column order.
func decodeRow(row []string) (record.Record, error) {
	timestamp, err := time.Parse(record.StoredTimestampLayout, row[0])
	if err != nil {
		return record.Record{}, fmt.Errorf("timestamp %q: %w", row[0], err)
	}

	floats := make([]float64, 0, 6)
	for _, index := range []int{1, 2, 3, 5, 6, 7} {
		value, err := strconv.ParseFloat(row[index], 64)
		if err != nil {
			return record.Record{}, fmt.Errorf("column %s %q: %w", Header[index], row[index], err)
		}
		floats = append(floats, value)
	}

	quality, err := strconv.Atoi(row[4])
	if err != nil {
		return record.Record{}, fmt.Errorf("column q %q: %w", row[4], err)
	}

	return record.Record{
		Timestamp:        timestamp,
		TargetFlow:       floats[0],
		Up:               floats[1],
		Down:             floats[2],
		Quality:          quality,
		Flow:             floats[3],
		Velocity:         floats[4],
		FilteredVelocity: floats[5],
	}, nil
}
