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

// LaneClassifier decides which of the two fixed lanes a context belongs to:
// true routes to lane A, false routes to lane B.
type LaneClassifier[T any, K comparable] func(ctx *PacketContext[T, K]) bool

// DualFairQdisc runs Deficit Round Robin over exactly two fixed lanes,
// guaranteeing 1:1 byte-fair service between them while both are
// backlogged, and never letting a dormant lane hoard credit.
type DualFairQdisc[T any, K comparable] struct {
	a, b Qdisc[T, K]

	deficitA, deficitB int
	turnA              bool
	quantum            int

	classify LaneClassifier[T, K]
}

// NewDualFairQdisc wraps lane A and lane B with a shared quantum and a
// boolean classifier selecting A (true) vs B (false).
func NewDualFairQdisc[T any, K comparable](a, b Qdisc[T, K], quantum int, classify LaneClassifier[T, K]) *DualFairQdisc[T, K] {
	return &DualFairQdisc[T, K]{a: a, b: b, turnA: true, quantum: quantum, classify: classify}
}

func (d *DualFairQdisc[T, K]) Enqueue(ctx PacketContext[T, K]) (PacketContext[T, K], bool) {
	if d.classify(&ctx) {
		return d.a.Enqueue(ctx)
	}
	return d.b.Enqueue(ctx)
}

// prepareTurn runs the turn state machine until the current
// turn side is either ready (returns true) or both lanes are empty (returns
// false, after zeroing both deficits).
func (d *DualFairQdisc[T, K]) prepareTurn() bool {
	for {
		_, aHas := d.a.Peek()
		_, bHas := d.b.Peek()
		if !aHas && !bHas {
			d.deficitA = 0
			d.deficitB = 0
			return false
		}

		var side Qdisc[T, K]
		var deficit *int
		if d.turnA {
			side = d.a
			deficit = &d.deficitA
		} else {
			side = d.b
			deficit = &d.deficitB
		}

		head, has := side.Peek()
		if has {
			if *deficit >= head.Cost {
				return true
			}
			*deficit += d.quantum
			d.turnA = !d.turnA
			continue
		}

		*deficit = 0
		d.turnA = !d.turnA
	}
}

func (d *DualFairQdisc[T, K]) Peek() (*PacketContext[T, K], bool) {
	if !d.prepareTurn() {
		return nil, false
	}
	if d.turnA {
		return d.a.Peek()
	}
	return d.b.Peek()
}

func (d *DualFairQdisc[T, K]) Dequeue() (PacketContext[T, K], bool) {
	if !d.prepareTurn() {
		return PacketContext[T, K]{}, false
	}

	var side Qdisc[T, K]
	var deficit *int
	if d.turnA {
		side = d.a
		deficit = &d.deficitA
	} else {
		side = d.b
		deficit = &d.deficitB
	}

	ctx, ok := side.Dequeue()
	if !ok {
		return PacketContext[T, K]{}, false
	}
	*deficit -= ctx.Cost

	// Each served packet yields the turn to the other lane, regardless of
	// deficit remaining. Without this, a lane credited ahead on a prior
	// skip (while the other lane was busy) could win two turns in a row.
	d.turnA = !d.turnA

	return ctx, true
}

func (d *DualFairQdisc[T, K]) CollectDropped() []PacketContext[T, K] {
	return append(d.a.CollectDropped(), d.b.CollectDropped()...)
}
