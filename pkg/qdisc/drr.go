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

import (
	"container/list"
	"time"
)

type drrFlow[T any, K comparable] struct {
	queue   []PacketContext[T, K]
	deficit int
	quantum int
	groupID int
}

// DrrQdisc is a per-flow Deficit Round Robin fair queue. New flows enter the
// active ring at the front (latency-friendly for sparse bursts); exhausted
// flows rotate to the back; depleted flows are removed outright.
type DrrQdisc[T any, K comparable] struct {
	flows           map[K]*drrFlow[T, K]
	activeQueue     *list.List
	groupFlowCounts map[int]int

	maxLatency time.Duration
	hardLimit  int
	quantum    int

	pendingExpired []PacketContext[T, K]
}

// NewDrrQdisc constructs a DrrQdisc. maxLatencyMs bounds per-packet
// residency; hardLimit bounds per-flow resident count; quantum is the
// credit granted to a flow each time it is revisited.
func NewDrrQdisc[T any, K comparable](maxLatencyMs int64, hardLimit, quantum int) *DrrQdisc[T, K] {
	return &DrrQdisc[T, K]{
		flows:           make(map[K]*drrFlow[T, K]),
		activeQueue:     list.New(),
		groupFlowCounts: make(map[int]int),
		maxLatency:      time.Duration(maxLatencyMs) * time.Millisecond,
		hardLimit:       hardLimit,
		quantum:         quantum,
	}
}

func (d *DrrQdisc[T, K]) Enqueue(ctx PacketContext[T, K]) (PacketContext[T, K], bool) {
	key := ctx.Key
	groupID := ctx.QueueNum

	if flow, ok := d.flows[key]; ok {
		flow.quantum = d.quantum
		if len(flow.queue) >= d.hardLimit {
			dropped := flow.queue[0]
			flow.queue = append(flow.queue[1:], ctx)
			return dropped, false
		}
		flow.queue = append(flow.queue, ctx)
		return PacketContext[T, K]{}, true
	}

	flow := &drrFlow[T, K]{deficit: d.quantum, quantum: d.quantum, groupID: groupID}
	flow.queue = append(flow.queue, ctx)
	d.flows[key] = flow
	d.activeQueue.PushFront(key)
	d.groupFlowCounts[groupID]++
	return PacketContext[T, K]{}, true
}

// prepareNextReadyFlow advances the active ring until its front holds a
// flow whose head packet is both fresh and covered by accumulated deficit,
// or the ring is empty.
func (d *DrrQdisc[T, K]) prepareNextReadyFlow() bool {
	now := nowFunc()

	for {
		front := d.activeQueue.Front()
		if front == nil {
			return false
		}
		key := front.Value.(K)
		d.activeQueue.Remove(front)

		flow, ok := d.flows[key]
		if !ok {
			continue
		}

		for len(flow.queue) > 0 && now.Sub(flow.queue[0].ArrivalTime) > d.maxLatency {
			d.pendingExpired = append(d.pendingExpired, flow.queue[0])
			flow.queue = flow.queue[1:]
		}

		if len(flow.queue) == 0 {
			delete(d.flows, key)
			if d.groupFlowCounts[flow.groupID] > 0 {
				d.groupFlowCounts[flow.groupID]--
			}
			continue
		}

		if flow.deficit < flow.queue[0].PktLen {
			flow.deficit += flow.quantum
			d.activeQueue.PushBack(key)
			continue
		}

		d.activeQueue.PushFront(key)
		return true
	}
}

func (d *DrrQdisc[T, K]) Peek() (*PacketContext[T, K], bool) {
	if !d.prepareNextReadyFlow() {
		return nil, false
	}
	front := d.activeQueue.Front()
	if front == nil {
		return nil, false
	}
	key := front.Value.(K)
	flow, ok := d.flows[key]
	if !ok || len(flow.queue) == 0 {
		return nil, false
	}
	return &flow.queue[0], true
}

func (d *DrrQdisc[T, K]) Dequeue() (PacketContext[T, K], bool) {
	if !d.prepareNextReadyFlow() {
		return PacketContext[T, K]{}, false
	}

	front := d.activeQueue.Front()
	if front == nil {
		return PacketContext[T, K]{}, false
	}
	key := front.Value.(K)
	d.activeQueue.Remove(front)

	flow, ok := d.flows[key]
	if !ok || len(flow.queue) == 0 {
		return PacketContext[T, K]{}, false
	}

	ctx := flow.queue[0]
	flow.queue = flow.queue[1:]
	flow.deficit -= ctx.PktLen

	if len(flow.queue) == 0 {
		delete(d.flows, key)
		if d.groupFlowCounts[flow.groupID] > 0 {
			d.groupFlowCounts[flow.groupID]--
		}
	} else {
		d.activeQueue.PushFront(key)
	}

	return ctx, true
}

func (d *DrrQdisc[T, K]) CollectDropped() []PacketContext[T, K] {
	dropped := d.pendingExpired
	d.pendingExpired = nil
	return dropped
}
