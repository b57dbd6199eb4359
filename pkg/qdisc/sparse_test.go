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
	"testing"
	"time"
)

// The first in-flight packet of a flow routes to the sparse
// child; subsequent concurrent packets of the same flow route to bulk; the
// in-flight counter returns to zero once everything has drained.
func TestSparseRoutingFirstPacketGoesSparse(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	sparseLeaf := NewFifoQdisc[rawMsg, string](10_000, 10)
	bulkLeaf := NewFifoQdisc[rawMsg, string](10_000, 10)
	s := NewSparseQdisc[rawMsg, string](sparseLeaf, bulkLeaf)

	s.Enqueue(ctxWithKey("A", nowFunc()))
	s.Enqueue(ctxWithKey("A", nowFunc()))
	s.Enqueue(ctxWithKey("A", nowFunc()))

	if _, ok := sparseLeaf.Peek(); !ok {
		t.Fatal("expected the first packet of flow A in the sparse leaf")
	}
	sp, _ := sparseLeaf.Dequeue() // consume it directly to inspect bulk backlog
	if sp.Key != "A" {
		t.Fatalf("sparse leaf head = %v, want A", sp.Key)
	}

	count := 0
	for {
		if _, ok := bulkLeaf.Dequeue(); ok {
			count++
		} else {
			break
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 concurrent packets routed to bulk, got %d", count)
	}
}

func TestSparseCounterReturnsToZero(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	sparseLeaf := NewFifoQdisc[rawMsg, string](10_000, 10)
	bulkLeaf := NewFifoQdisc[rawMsg, string](10_000, 10)
	s := NewSparseQdisc[rawMsg, string](sparseLeaf, bulkLeaf)

	s.Enqueue(ctxWithKey("A", nowFunc()))
	s.Enqueue(ctxWithKey("A", nowFunc()))

	if _, ok := s.Dequeue(); !ok {
		t.Fatal("expected first dequeue to succeed")
	}
	if n := s.inFlight["A"]; n != 1 {
		t.Fatalf("inFlight[A] = %d, want 1 after draining one of two", n)
	}

	if _, ok := s.Dequeue(); !ok {
		t.Fatal("expected second dequeue to succeed")
	}
	if _, tracked := s.inFlight["A"]; tracked {
		t.Fatal("expected flow A to be erased from inFlight once drained to zero")
	}

	// The counter being zero means the next packet of A should again route
	// to the sparse lane.
	s.Enqueue(ctxWithKey("A", nowFunc()))
	if _, ok := sparseLeaf.Peek(); !ok {
		t.Fatal("expected flow A to return to the sparse lane once fully drained")
	}
}

func TestSparseCollectDroppedReconcilesCounter(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	sparseLeaf := NewFifoQdisc[rawMsg, string](10, 10)
	bulkLeaf := NewFifoQdisc[rawMsg, string](10_000, 10)
	s := NewSparseQdisc[rawMsg, string](sparseLeaf, bulkLeaf)

	s.Enqueue(ctxWithKey("A", nowFunc()))
	advanceClock(50 * time.Millisecond)

	// Expiry is lazy: the sparse leaf only discovers its stale head when
	// touched.
	s.Peek()

	dropped := s.CollectDropped()
	if len(dropped) != 1 {
		t.Fatalf("CollectDropped = %d, want 1 (expired sparse head)", len(dropped))
	}
	if _, tracked := s.inFlight["A"]; tracked {
		t.Fatal("expected in-flight counter to be reconciled after the drop surfaced")
	}
}
