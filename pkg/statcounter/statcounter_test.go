// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statcounter

import (
	"sync"
	"testing"
)

func TestCounterAddLoad(t *testing.T) {
	c := NewCounter(4)
	for i := 0; i < 100; i++ {
		c.Add(1)
	}
	if got := c.Load(); got != 100 {
		t.Fatalf("Load() = %d, want 100", got)
	}
}

func TestCounterNegativeDelta(t *testing.T) {
	c := NewCounter(4)
	c.Add(50)
	c.Add(-20)
	if got := c.Load(); got != 30 {
		t.Fatalf("Load() = %d, want 30", got)
	}
}

func TestCounterConcurrentReaders(t *testing.T) {
	c := NewCounter(8)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = c.Load()
			}
		}()
	}
	for i := 0; i < 10000; i++ {
		c.Add(1)
	}
	wg.Wait()
	if got := c.Load(); got != 10000 {
		t.Fatalf("Load() = %d, want 10000", got)
	}
}

func TestNewCounterRoundsUpToPowerOfTwo(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 4}, {1, 4}, {3, 4}, {5, 8}, {9, 16},
	}
	for _, tc := range cases {
		c := NewCounter(tc.in)
		if len(c.stripes) != tc.want {
			t.Errorf("NewCounter(%d) stripes = %d, want %d", tc.in, len(c.stripes), tc.want)
		}
	}
}

func TestQueueCountersSnapshot(t *testing.T) {
	q := NewQueueCounters()
	q.InPkts.Add(5)
	q.DropPkts.Add(1)
	q.OutPkts.Add(4)
	q.OutBytes.Add(4000)
	q.BacklogPkts.Add(2)
	q.BacklogBytes.Add(1500)

	snap := q.Snapshot()
	want := Snapshot{InPkts: 5, DropPkts: 1, OutPkts: 4, OutBytes: 4000, BacklogPkts: 2, BacklogBytes: 1500}
	if snap != want {
		t.Fatalf("Snapshot() = %+v, want %+v", snap, want)
	}
}

func TestQueueCountersBacklogCanDecrease(t *testing.T) {
	q := NewQueueCounters()
	q.BacklogBytes.Add(1000)
	q.BacklogBytes.Add(-400)
	if got := q.BacklogBytes.Load(); got != 600 {
		t.Fatalf("BacklogBytes.Load() = %d, want 600", got)
	}
}
