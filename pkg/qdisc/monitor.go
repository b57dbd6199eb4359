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

package qdisc

import "github.com/Tom-Plants/UserSpaceQOS/pkg/statcounter"

// MonitorQdisc transparently wraps any qdisc, publishing per-queue_num
// counters that are safe to read from a concurrent reporting goroutine
// (the dashboard/metrics surface) while this qdisc itself is only ever
// touched by the single ingestion-loop goroutine.
type MonitorQdisc[T any, K comparable] struct {
	Name  string
	inner Qdisc[T, K]

	counters map[int]*statcounter.QueueCounters
}

// NewMonitorQdisc wraps inner under the given report name.
func NewMonitorQdisc[T any, K comparable](name string, inner Qdisc[T, K]) *MonitorQdisc[T, K] {
	return &MonitorQdisc[T, K]{Name: name, inner: inner, counters: make(map[int]*statcounter.QueueCounters)}
}

// Counters returns the published counter set for a queue number, lazily
// creating it, for a reporting goroutine to Snapshot().
func (m *MonitorQdisc[T, K]) Counters(queueNum int) *statcounter.QueueCounters {
	c, ok := m.counters[queueNum]
	if !ok {
		c = statcounter.NewQueueCounters()
		m.counters[queueNum] = c
	}
	return c
}

// QueueNums returns every queue number that has been observed so far.
func (m *MonitorQdisc[T, K]) QueueNums() []int {
	nums := make([]int, 0, len(m.counters))
	for n := range m.counters {
		nums = append(nums, n)
	}
	return nums
}

// ResetRates zeroes the per-second counters on every observed queue. Called
// once a second by the external reporter after it has read and logged the
// snapshot; backlog counters are untouched.
func (m *MonitorQdisc[T, K]) ResetRates() {
	for _, c := range m.counters {
		c.ResetRates()
	}
}

func (m *MonitorQdisc[T, K]) recordDrop(ctx *PacketContext[T, K]) {
	c := m.Counters(ctx.QueueNum)
	c.DropPkts.Add(1)
	c.BacklogPkts.Add(-1)
	c.BacklogBytes.Add(-int64(ctx.Cost))
}

func (m *MonitorQdisc[T, K]) drainInnerDrops() []PacketContext[T, K] {
	dropped := m.inner.CollectDropped()
	for i := range dropped {
		m.recordDrop(&dropped[i])
	}
	return dropped
}

func (m *MonitorQdisc[T, K]) Enqueue(ctx PacketContext[T, K]) (PacketContext[T, K], bool) {
	queueNum := ctx.QueueNum
	rejected, ok := m.inner.Enqueue(ctx)

	c := m.Counters(queueNum)
	if ok {
		c.InPkts.Add(1)
		c.BacklogPkts.Add(1)
		c.BacklogBytes.Add(int64(ctx.Cost))
	} else {
		c.DropPkts.Add(1)
	}

	m.drainInnerDrops()
	return rejected, ok
}

func (m *MonitorQdisc[T, K]) Peek() (*PacketContext[T, K], bool) {
	return m.inner.Peek()
}

func (m *MonitorQdisc[T, K]) Dequeue() (PacketContext[T, K], bool) {
	ctx, ok := m.inner.Dequeue()
	if ok {
		c := m.Counters(ctx.QueueNum)
		c.OutPkts.Add(1)
		c.OutBytes.Add(int64(ctx.Cost))
		c.BacklogPkts.Add(-1)
		c.BacklogBytes.Add(-int64(ctx.Cost))
	}

	m.drainInnerDrops()
	return ctx, ok
}

func (m *MonitorQdisc[T, K]) CollectDropped() []PacketContext[T, K] {
	return m.drainInnerDrops()
}
