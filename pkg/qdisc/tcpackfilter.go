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

import "time"

const (
	ackFlowGCInterval = 1024
	ackFlowGCIdle     = 120 * time.Second
)

type ackFlowState struct {
	highestAck uint32
	lastSeen   time.Time
}

// ackNewer reports whether b supersedes a under 32-bit TCP sequence
// wraparound: b is newer than a iff (b-a), reinterpreted as signed, is > 0.
func ackNewer(b, a uint32) bool {
	return int32(b-a) > 0
}

// TcpAckFilterQdisc transparently thins superseded TCP pure-ACKs while
// leaving every other packet untouched.
type TcpAckFilterQdisc[T any, K comparable] struct {
	inner Qdisc[T, K]
	flows map[K]*ackFlowState

	dropped     []PacketContext[T, K]
	enqueueCount int
}

// NewTcpAckFilterQdisc wraps inner with pure-ACK sequence deduplication.
func NewTcpAckFilterQdisc[T any, K comparable](inner Qdisc[T, K]) *TcpAckFilterQdisc[T, K] {
	return &TcpAckFilterQdisc[T, K]{inner: inner, flows: make(map[K]*ackFlowState)}
}

func (f *TcpAckFilterQdisc[T, K]) Enqueue(ctx PacketContext[T, K]) (PacketContext[T, K], bool) {
	if ctx.IsPureAck {
		now := nowFunc()
		state, ok := f.flows[ctx.Key]
		if !ok {
			state = &ackFlowState{highestAck: ctx.TcpAckNum, lastSeen: now}
			f.flows[ctx.Key] = state
		} else {
			if ackNewer(ctx.TcpAckNum, state.highestAck) {
				state.highestAck = ctx.TcpAckNum
			}
			state.lastSeen = now
		}

		f.enqueueCount++
		if f.enqueueCount >= ackFlowGCInterval {
			f.enqueueCount = 0
			f.gc(now)
		}
	}

	return f.inner.Enqueue(ctx)
}

func (f *TcpAckFilterQdisc[T, K]) gc(now time.Time) {
	for key, state := range f.flows {
		if now.Sub(state.lastSeen) >= ackFlowGCIdle {
			delete(f.flows, key)
		}
	}
}

func (f *TcpAckFilterQdisc[T, K]) Peek() (*PacketContext[T, K], bool) {
	for {
		ctx, ok := f.inner.Peek()
		if !ok {
			return nil, false
		}
		if f.isSuperseded(ctx) {
			dropped, ok := f.inner.Dequeue()
			if !ok {
				return nil, false
			}
			f.dropped = append(f.dropped, dropped)
			continue
		}
		return ctx, true
	}
}

func (f *TcpAckFilterQdisc[T, K]) Dequeue() (PacketContext[T, K], bool) {
	for {
		ctx, ok := f.inner.Dequeue()
		if !ok {
			return PacketContext[T, K]{}, false
		}
		if f.isSuperseded(&ctx) {
			f.dropped = append(f.dropped, ctx)
			continue
		}
		return ctx, true
	}
}

func (f *TcpAckFilterQdisc[T, K]) isSuperseded(ctx *PacketContext[T, K]) bool {
	if !ctx.IsPureAck {
		return false
	}
	state, ok := f.flows[ctx.Key]
	if !ok {
		return false
	}
	return ackNewer(state.highestAck, ctx.TcpAckNum)
}

func (f *TcpAckFilterQdisc[T, K]) CollectDropped() []PacketContext[T, K] {
	merged := append(f.dropped, f.inner.CollectDropped()...)
	f.dropped = nil
	return merged
}
