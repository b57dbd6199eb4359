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

// Package qdisc implements the composable queueing-discipline tree that
// forms the data-plane core of the shaper: a generic PacketContext pipeline,
// a modifier chain for virtual cost accounting, a token bucket limiter, and
// the seven concrete Qdisc variants that compose into the full tree.
package qdisc

import "time"

// PacketContext is the unit that flows through every Qdisc. T is the opaque
// payload handle (e.g. a kernel message wrapper); K is the flow identity
// used to key per-flow state (typically FiveTuple).
//
// Ownership is move-only by convention: Enqueue takes a PacketContext by
// value and hands a context back on rejection; Dequeue and CollectDropped return
// contexts the caller now owns outright. No Qdisc method retains a pointer
// into a context it has returned.
type PacketContext[T any, K comparable] struct {
	Msg  T
	Key  K

	PktLen   int
	Cost     int
	QueueNum int

	ArrivalTime time.Time

	Frames     int
	IsPureAck  bool
	TcpAckNum  uint32
}

// New builds a PacketContext at ingestion time: Cost starts equal to PktLen
// and Frames starts at 1, both adjusted by the modifier chain afterward.
func New[T any, K comparable](msg T, key K, pktLen, queueNum int, arrival time.Time) PacketContext[T, K] {
	return PacketContext[T, K]{
		Msg:         msg,
		Key:         key,
		PktLen:      pktLen,
		Cost:        pktLen,
		QueueNum:    queueNum,
		ArrivalTime: arrival,
		Frames:      1,
	}
}
