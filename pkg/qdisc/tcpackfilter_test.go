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

func pureAck(key string, ack uint32, arrival time.Time) PacketContext[rawMsg, string] {
	return PacketContext[rawMsg, string]{Key: key, PktLen: 40, Cost: 40, ArrivalTime: arrival, IsPureAck: true, TcpAckNum: ack}
}

// ACK supersede.
func TestTcpAckFilterSupersedesOlderAcks(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	inner := NewFifoQdisc[rawMsg, string](10_000, 10)
	f := NewTcpAckFilterQdisc[rawMsg, string](inner)

	f.Enqueue(pureAck("K", 100, nowFunc()))
	f.Enqueue(pureAck("K", 200, nowFunc()))
	f.Enqueue(pureAck("K", 150, nowFunc()))

	ctx, ok := f.Dequeue()
	if !ok || ctx.TcpAckNum != 200 {
		t.Fatalf("Dequeue() = (%v, %v), want ack=200", ctx, ok)
	}

	if _, ok := f.Dequeue(); ok {
		t.Fatal("expected no further dequeues (100 and 150 were superseded)")
	}

	dropped := f.CollectDropped()
	if len(dropped) != 2 {
		t.Fatalf("CollectDropped = %d entries, want 2 (ack=100, ack=150)", len(dropped))
	}
	gotAcks := map[uint32]bool{dropped[0].TcpAckNum: true, dropped[1].TcpAckNum: true}
	if !gotAcks[100] || !gotAcks[150] {
		t.Fatalf("dropped acks = %v, want {100,150}", gotAcks)
	}
}

func TestAckNewerHandlesWraparound(t *testing.T) {
	// Near the 32-bit wraparound boundary, a small absolute value can still
	// be "newer" than a large one.
	const maxU32 = ^uint32(0)
	if !ackNewer(5, maxU32-10) {
		t.Fatal("expected ack=5 to be newer than ack=maxU32-10 across wraparound")
	}
	if ackNewer(maxU32-10, 5) {
		t.Fatal("expected ack=maxU32-10 to NOT be newer than ack=5 across wraparound")
	}
}

func TestTcpAckFilterLeavesDataSegmentsUntouched(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	inner := NewFifoQdisc[rawMsg, string](10_000, 10)
	f := NewTcpAckFilterQdisc[rawMsg, string](inner)

	data := PacketContext[rawMsg, string]{Key: "K", PktLen: 1000, Cost: 1000, ArrivalTime: nowFunc()}
	f.Enqueue(data)

	ctx, ok := f.Dequeue()
	if !ok || ctx.IsPureAck {
		t.Fatalf("expected the data segment to pass through untouched, got %+v ok=%v", ctx, ok)
	}
}
