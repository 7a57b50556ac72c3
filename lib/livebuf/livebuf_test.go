// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package livebuf

import (
	"sync"
	"testing"
	"time"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestSnapshotEmptyBeforeFirstPush(t *testing.T) {
	t.Parallel()
	buffer := New(0)

	if got := buffer.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot of empty buffer: got %d samples, want 0", len(got))
	}
}

func TestPushOrderPreserved(t *testing.T) {
	t.Parallel()
	buffer := New(0)

	for i := 0; i < 10; i++ {
		buffer.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	snapshot := buffer.Snapshot()
	if len(snapshot) != 10 {
		t.Fatalf("Snapshot: got %d samples, want 10", len(snapshot))
	}
	for i, sample := range snapshot {
		if sample.Value != float64(i) {
			t.Fatalf("sample %d: got value %v, want %v", i, sample.Value, float64(i))
		}
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	t.Parallel()
	buffer := New(3)

	for i := 0; i < 5; i++ {
		buffer.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}

	snapshot := buffer.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("Snapshot: got %d samples, want 3", len(snapshot))
	}
	for i, want := range []float64{2, 3, 4} {
		if snapshot[i].Value != want {
			t.Errorf("sample %d: got %v, want %v", i, snapshot[i].Value, want)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()
	buffer := New(0)
	buffer.Push(base, 1.0)

	snapshot := buffer.Snapshot()
	snapshot[0].Value = 99.0

	if got := buffer.Snapshot()[0].Value; got != 1.0 {
		t.Errorf("buffer mutated through snapshot: got %v, want 1.0", got)
	}
}

// TestNoTornPairs drives concurrent pushes and snapshots. Each push
// uses a timestamp and value derived from the same counter, so any
// snapshot pair whose value disagrees with its timestamp was torn
// across two pushes.
func TestNoTornPairs(t *testing.T) {
	t.Parallel()
	buffer := New(64)

	const pushes = 5000
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < pushes; i++ {
			buffer.Push(base.Add(time.Duration(i)*time.Second), float64(i))
		}
	}()

	var wg sync.WaitGroup
	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for _, sample := range buffer.Snapshot() {
					wantValue := float64(sample.Timestamp.Sub(base) / time.Second)
					if sample.Value != wantValue {
						t.Errorf("torn pair: timestamp %v with value %v",
							sample.Timestamp, sample.Value)
						return
					}
				}
			}
		}()
	}

	<-done
	wg.Wait()
}

func TestSnapshotMonotoneDuringConcurrentPush(t *testing.T) {
	t.Parallel()
	buffer := New(0)

	const pushes = 2000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < pushes; i++ {
			buffer.Push(base.Add(time.Duration(i)*time.Second), float64(i))
		}
	}()

	for {
		snapshot := buffer.Snapshot()
		for i := 1; i < len(snapshot); i++ {
			if snapshot[i].Value != snapshot[i-1].Value+1 {
				t.Fatalf("snapshot out of order at %d: %v after %v",
					i, snapshot[i].Value, snapshot[i-1].Value)
			}
		}
		select {
		case <-done:
			return
		default:
		}
	}
}
