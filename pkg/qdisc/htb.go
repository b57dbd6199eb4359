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

// HighLaneClassifier decides whether a context belongs to the high-priority
// lane (true) or the default lane (false).
type HighLaneClassifier[T any, K comparable] func(ctx *PacketContext[T, K]) bool

// RootHtbQdisc is the top of the tree: a two-lane Hierarchical Token Bucket
// gate. The high lane has strict priority subject to both token buckets;
// the default lane must additionally leave reservedBytes of headroom in the
// global bucket, so the high lane can always burst.
type RootHtbQdisc[T any, K comparable] struct {
	high    Qdisc[T, K]
	deflt   Qdisc[T, K]
	global  *TokenBucket
	highTB  *TokenBucket
	reserve int

	classify HighLaneClassifier[T, K]
}

// NewRootHtbQdisc builds the root gate.
func NewRootHtbQdisc[T any, K comparable](
	high, deflt Qdisc[T, K], global, highTB *TokenBucket, reservedBytes int,
	classify HighLaneClassifier[T, K],
) *RootHtbQdisc[T, K] {
	return &RootHtbQdisc[T, K]{
		high: high, deflt: deflt, global: global, highTB: highTB,
		reserve: reservedBytes, classify: classify,
	}
}

func (r *RootHtbQdisc[T, K]) Enqueue(ctx PacketContext[T, K]) (PacketContext[T, K], bool) {
	if r.classify(&ctx) {
		return r.high.Enqueue(ctx)
	}
	return r.deflt.Enqueue(ctx)
}

// choose returns the lane ready to dequeue right now, if any, and whether
// it is the high lane (for debiting the right buckets by the caller).
func (r *RootHtbQdisc[T, K]) choose() (lane Qdisc[T, K], isHigh, ready bool) {
	if head, ok := r.high.Peek(); ok {
		if r.highTB.CanSpend(head.Cost) && r.global.CanSpend(head.Cost) {
			return r.high, true, true
		}
	}
	if head, ok := r.deflt.Peek(); ok {
		if r.global.CanSpend(head.Cost + r.reserve) {
			return r.deflt, false, true
		}
	}
	return nil, false, false
}

func (r *RootHtbQdisc[T, K]) Peek() (*PacketContext[T, K], bool) {
	lane, _, ready := r.choose()
	if !ready {
		return nil, false
	}
	return lane.Peek()
}

func (r *RootHtbQdisc[T, K]) Dequeue() (PacketContext[T, K], bool) {
	lane, isHigh, ready := r.choose()
	if !ready {
		return PacketContext[T, K]{}, false
	}

	ctx, ok := lane.Dequeue()
	if !ok {
		return PacketContext[T, K]{}, false
	}

	if isHigh {
		r.highTB.Consume(ctx.Cost)
		r.global.Consume(ctx.Cost)
	} else {
		r.global.Consume(ctx.Cost)
	}

	return ctx, true
}

func (r *RootHtbQdisc[T, K]) CollectDropped() []PacketContext[T, K] {
	return append(r.high.CollectDropped(), r.deflt.CollectDropped()...)
}
