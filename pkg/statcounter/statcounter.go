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

// Package statcounter provides a small set of monotonic counters that can be
// written from a single hot-path goroutine and read concurrently by a
// reporting goroutine (Prometheus scrape handler, dashboard SSE broadcaster)
// without the writer ever taking a lock.
//
// It is a striped-atomic counter, the same contention-avoidance idea as an
// earlier in-house Vector-Scalar Accumulator, reduced to what a monotonic
// tally needs: Add on the write side, Snapshot on the read side. There is no
// consume/refund/commit ledger here — counters only go up (or, for the
// backlog gauges, up and down), they are never "spent".
package statcounter

import "sync/atomic"

// padSize over-pads to 128 bytes to keep adjacent stripes on separate cache
// lines regardless of the host's actual line size.
const padSize = 128 - 8

type stripe struct {
	val atomic.Int64
	_   [padSize]byte
}

// Counter is a single striped monotonic (or up/down) tally.
type Counter struct {
	stripes []stripe
	mask    uint64
	chooser atomic.Uint64
}

// NewCounter creates a Counter with n stripes, rounded up to a power of two
// (minimum 4). A small fixed stripe count is enough here: the write side is
// a single goroutine, so striping exists only to let concurrent readers scan
// without ever blocking that writer, not to relieve write contention.
func NewCounter(n int) *Counter {
	if n < 4 {
		n = 4
	}
	n = nextPow2(n)
	return &Counter{stripes: make([]stripe, n), mask: uint64(n - 1)}
}

// Add adds delta (positive or negative) to the counter. Safe to call from
// exactly one writer goroutine at a time; concurrent writers would race on
// which stripe they land on but never corrupt a stripe's own atomic value.
func (c *Counter) Add(delta int64) {
	idx := c.chooser.Add(1) & c.mask
	c.stripes[idx].val.Add(delta)
}

// Load sums all stripes. Safe to call from any number of concurrent readers.
func (c *Counter) Load() int64 {
	var sum int64
	for i := range c.stripes {
		sum += c.stripes[i].val.Load()
	}
	return sum
}

// Reset zeroes every stripe. Used for the per-second rate counters, which
// MonitorQdisc resets after each report; never called on the running
// backlog ledgers.
func (c *Counter) Reset() {
	for i := range c.stripes {
		c.stripes[i].val.Store(0)
	}
}

// QueueCounters is the published, per-numbered-queue tally that backs
// MonitorQdisc's instrumentation contract (spec.md §4.9 / §4.8's reference
// to its instrumentation contract).
type QueueCounters struct {
	InPkts      Counter
	DropPkts    Counter
	OutPkts     Counter
	OutBytes    Counter
	BacklogPkts Counter
	BacklogBytes Counter
}

// NewQueueCounters allocates a ready-to-use counter set.
func NewQueueCounters() *QueueCounters {
	return &QueueCounters{
		InPkts:       Counter{stripes: make([]stripe, 4), mask: 3},
		DropPkts:     Counter{stripes: make([]stripe, 4), mask: 3},
		OutPkts:      Counter{stripes: make([]stripe, 4), mask: 3},
		OutBytes:     Counter{stripes: make([]stripe, 4), mask: 3},
		BacklogPkts:  Counter{stripes: make([]stripe, 4), mask: 3},
		BacklogBytes: Counter{stripes: make([]stripe, 4), mask: 3},
	}
}

// Snapshot is an immutable point-in-time read of a QueueCounters, safe to
// hand to a reporting goroutine.
type Snapshot struct {
	InPkts       int64
	DropPkts     int64
	OutPkts      int64
	OutBytes     int64
	BacklogPkts  int64
	BacklogBytes int64
}

// Snapshot reads all six tallies. The read is not atomic across fields (a
// writer may land between two Loads), which is acceptable for a
// once-per-second report; it is never used to gate qdisc decisions.
func (q *QueueCounters) Snapshot() Snapshot {
	return Snapshot{
		InPkts:       q.InPkts.Load(),
		DropPkts:     q.DropPkts.Load(),
		OutPkts:      q.OutPkts.Load(),
		OutBytes:     q.OutBytes.Load(),
		BacklogPkts:  q.BacklogPkts.Load(),
		BacklogBytes: q.BacklogBytes.Load(),
	}
}

// ResetRates zeroes the per-second counters (everything but the running
// backlog ledger), mirroring MonitorQdisc's once-a-second report-and-reset.
func (q *QueueCounters) ResetRates() {
	q.InPkts.Reset()
	q.DropPkts.Reset()
	q.OutPkts.Reset()
	q.OutBytes.Reset()
}

func nextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return x + 1
}
