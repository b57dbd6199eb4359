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

// Qdisc is the queueing-discipline contract every node in the tree
// implements, leaf or wrapper. Implementations never panic on ordinary
// operation; Enqueue hands the context back on rejection instead of
// returning an error value, since the context itself is the only thing a
// caller needs back.
//
// Conservation invariant: for every context that Enqueue accepts, exactly
// one terminal event eventually occurs — it is returned by Dequeue, surfaced
// by CollectDropped, or still resident when the Qdisc itself is discarded.
type Qdisc[T any, K comparable] interface {
	// Enqueue accepts ownership of ctx, or reports a rejection (overflow,
	// physical cap) with ok=false and hands back a context the qdisc no
	// longer holds: ctx itself, or, for head-drop leaves (FifoQdisc,
	// DrrQdisc), the evicted head, with ctx queued in its place.
	Enqueue(ctx PacketContext[T, K]) (rejected PacketContext[T, K], ok bool)

	// Peek borrows the context that would be returned by Dequeue if called
	// now, without removing it. Idempotent across repeated calls with no
	// intervening Enqueue, aside from lazy housekeeping (e.g. expiring a
	// stale head), which Peek is allowed to perform as a side effect.
	Peek() (*PacketContext[T, K], bool)

	// Dequeue removes and returns the next context, or ok=false if empty or
	// gated (e.g. by a token bucket).
	Dequeue() (PacketContext[T, K], bool)

	// CollectDropped drains contexts that died internally since the last
	// call: timed out, ACK-superseded, evicted by a wrapped child. Must be
	// called often enough that such batches don't grow unbounded.
	CollectDropped() []PacketContext[T, K]
}
