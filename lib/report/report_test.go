// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hydrolab/flowlog/lib/record"
)

var reportBase = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func measurement(target float64, second int, flow float64) record.Record {
	return record.Record{
		Timestamp:  reportBase.Add(time.Duration(second) * time.Second),
		TargetFlow: target,
		Flow:       flow,
	}
}

func TestBuildGroupsByTargetAscending(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		measurement(2.0, 0, 2.1),
		measurement(1.5, 1, 1.4),
		measurement(2.0, 2, 1.9),
		measurement(1.5, 3, 1.6),
	}

	groups := Build(records, 0)
	if len(groups) != 2 {
		t.Fatalf("groups: got %d, want 2", len(groups))
	}
	if groups[0].TargetFlow != 1.5 || groups[1].TargetFlow != 2.0 {
		t.Errorf("group order: got %v, %v, want 1.5, 2.0",
			groups[0].TargetFlow, groups[1].TargetFlow)
	}
	if len(groups[0].Records) != 2 || len(groups[1].Records) != 2 {
		t.Errorf("group sizes: got %d and %d, want 2 and 2",
			len(groups[0].Records), len(groups[1].Records))
	}
}

func TestBuildSortsRowsByTimestamp(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		measurement(1.5, 30, 1.6),
		measurement(1.5, 10, 1.4),
		measurement(1.5, 20, 1.5),
	}

	groups := Build(records, 0)
	rows := groups[0].Records
	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp.Before(rows[i-1].Timestamp) {
			t.Fatalf("rows not sorted at %d", i)
		}
	}
}

func TestSummaryStatistics(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		measurement(1.5, 0, 1.0),
		measurement(1.5, 1, 2.0),
		measurement(1.5, 2, 3.0),
	}

	group := Build(records, 0)[0]
	if group.MeanFlow != 2.0 {
		t.Errorf("MeanFlow: got %v, want 2.0", group.MeanFlow)
	}
	// Sample standard deviation of {1,2,3} is 1.
	if math.Abs(group.StdDev-1.0) > 1e-12 {
		t.Errorf("StdDev: got %v, want 1.0", group.StdDev)
	}
	if group.MinFlow != 1.0 || group.MaxFlow != 3.0 {
		t.Errorf("range: got %v-%v, want 1-3", group.MinFlow, group.MaxFlow)
	}
	if group.Duration != 2*time.Second {
		t.Errorf("Duration: got %v, want 2s", group.Duration)
	}
}

func TestSingleRowGroupHasZeroStdDev(t *testing.T) {
	t.Parallel()

	group := Build([]record.Record{measurement(1.5, 0, 1.523)}, 0)[0]
	if group.StdDev != 0 {
		t.Errorf("StdDev: got %v, want 0", group.StdDev)
	}
}

func TestRollingAverageWindow(t *testing.T) {
	t.Parallel()

	// 10s window: the sample at t=12 sees only t=4..12, dropping t=0.
	records := []record.Record{
		measurement(1.5, 0, 1.0),
		measurement(1.5, 4, 2.0),
		measurement(1.5, 8, 3.0),
		measurement(1.5, 12, 4.0),
	}

	group := Build(records, 10*time.Second)
	rolling := group[0].Rolling
	if len(rolling) != 4 {
		t.Fatalf("rolling points: got %d, want 4", len(rolling))
	}

	wants := []float64{
		1.0,               // {1}
		1.5,               // {1,2}
		2.0,               // {1,2,3}
		3.0,               // {2,3,4}: t=0 fell out of the window
	}
	for i, want := range wants {
		if math.Abs(rolling[i].Value-want) > 1e-12 {
			t.Errorf("rolling[%d]: got %v, want %v", i, rolling[i].Value, want)
		}
	}
}

func TestRollingWindowBoundaryExclusive(t *testing.T) {
	t.Parallel()

	// A row exactly window seconds older is excluded.
	records := []record.Record{
		measurement(1.5, 0, 1.0),
		measurement(1.5, 10, 3.0),
	}

	group := Build(records, 10*time.Second)
	if got := group[0].Rolling[1].Value; got != 3.0 {
		t.Errorf("rolling at boundary: got %v, want 3.0", got)
	}
}

func TestRenderContainsSummary(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		measurement(1.5, 0, 1.5),
		measurement(2.0, 1, 2.0),
	}
	output := Render(Build(records, 0))

	for _, want := range []string{"Target 1.5 l/s", "Target 2 l/s", "samples", "mean flow"} {
		if !strings.Contains(output, want) {
			t.Errorf("Render output missing %q:\n%s", want, output)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()
	if got := Render(nil); !strings.Contains(got, "no records") {
		t.Errorf("Render(nil): got %q", got)
	}
}
