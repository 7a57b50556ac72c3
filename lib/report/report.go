// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package report computes per-target summaries from a persisted
// measurement log: rows grouped by target flow, a time-windowed
// rolling average of the flow signal, and mean/σ statistics per
// group. It consumes exactly the store's file format and never
// touches the acquisition pipeline.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/hydrolab/flowlog/lib/record"
)

// DefaultRollingWindow matches the reporting convention for bench
// runs: a 10-second trailing mean smooths pump oscillation without
// hiding drift.
const DefaultRollingWindow = 10 * time.Second

// Point is one rolling-average sample.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Group is the analysis of all records sharing one target flow.
type Group struct {
	// TargetFlow is the group's setpoint in l/s.
	TargetFlow float64

	// Records are the group's rows, sorted by timestamp.
	Records []record.Record

	// Rolling is the trailing-window mean of the flow signal, one
	// point per record.
	Rolling []Point

	// MeanFlow and StdDev summarize the raw flow signal. StdDev is
	// the sample standard deviation, zero for single-row groups.
	MeanFlow float64
	StdDev   float64

	// MinFlow and MaxFlow are the raw extremes.
	MinFlow float64
	MaxFlow float64

	// Duration spans the first to the last record.
	Duration time.Duration
}

// Build groups records by target flow and computes each group's
// rolling average and summary statistics. Groups are returned in
// ascending target flow order. A non-positive window selects
// DefaultRollingWindow.
func Build(records []record.Record, window time.Duration) []Group {
	if window <= 0 {
		window = DefaultRollingWindow
	}

	byTarget := make(map[float64][]record.Record)
	for _, r := range records {
		byTarget[r.TargetFlow] = append(byTarget[r.TargetFlow], r)
	}

	targets := make([]float64, 0, len(byTarget))
	for target := range byTarget {
		targets = append(targets, target)
	}
	sort.Float64s(targets)

	groups := make([]Group, 0, len(targets))
	for _, target := range targets {
		rows := byTarget[target]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		})

		group := Group{
			TargetFlow: target,
			Records:    rows,
			Rolling:    rollingAverage(rows, window),
		}
		group.summarize()
		groups = append(groups, group)
	}
	return groups
}

// rollingAverage computes the trailing-window mean of the flow signal:
// for each row, the mean of all rows whose timestamp lies within
// (t - window, t]. Two cursors over the sorted rows keep it linear.
func rollingAverage(rows []record.Record, window time.Duration) []Point {
	points := make([]Point, len(rows))
	sum := 0.0
	left := 0
	for right, row := range rows {
		sum += row.Flow
		cutoff := row.Timestamp.Add(-window)
		for !rows[left].Timestamp.After(cutoff) {
			sum -= rows[left].Flow
			left++
		}
		points[right] = Point{
			Timestamp: row.Timestamp,
			Value:     sum / float64(right-left+1),
		}
	}
	return points
}

func (g *Group) summarize() {
	if len(g.Records) == 0 {
		return
	}

	g.MinFlow = math.Inf(1)
	g.MaxFlow = math.Inf(-1)
	sum := 0.0
	for _, r := range g.Records {
		sum += r.Flow
		g.MinFlow = math.Min(g.MinFlow, r.Flow)
		g.MaxFlow = math.Max(g.MaxFlow, r.Flow)
	}
	g.MeanFlow = sum / float64(len(g.Records))

	if len(g.Records) > 1 {
		sumSquares := 0.0
		for _, r := range g.Records {
			deviation := r.Flow - g.MeanFlow
			sumSquares += deviation * deviation
		}
		g.StdDev = math.Sqrt(sumSquares / float64(len(g.Records)-1))
	}

	first := g.Records[0].Timestamp
	last := g.Records[len(g.Records)-1].Timestamp
	g.Duration = last.Sub(first)
}
