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

package shaper

import (
	"github.com/Tom-Plants/UserSpaceQOS/internal/ingress"
	"github.com/Tom-Plants/UserSpaceQOS/pkg/qdisc"
)

// bulkClass carves the default lane's bulk traffic into two classes: queues
// 0 and 4 (short-lived transfers) carry a small quantum, queues 1 and 5
// (long-lived bulk transfers) carry a much larger one.
func bulkClass(ctx *qdisc.PacketContext[ingress.Message, qdisc.FiveTuple]) (int, int) {
	switch ctx.QueueNum {
	case 0, 4:
		return 0, 1500
	case 1, 5:
		return 1, 15000
	default:
		return -1, 1500
	}
}

// highLane routes queue 2 to the short/interactive side of the high-priority
// DualFair gate and queue 3 to its long/bulk side.
func highLane(ctx *qdisc.PacketContext[ingress.Message, qdisc.FiveTuple]) bool {
	return ctx.QueueNum == 2
}

// htbHighPriority selects which traffic is gated as high priority by the
// root HTB node: queues 2 and 3.
func htbHighPriority(ctx *qdisc.PacketContext[ingress.Message, qdisc.FiveTuple]) bool {
	return ctx.QueueNum == 2 || ctx.QueueNum == 3
}

// BuildTree wires the seven qdisc primitives into the shaping tree:
//
//	RootHtbQdisc (global + high-priority token buckets)
//	├── high:    DualFairQdisc(quantum=1500)
//	│            ├── short: FifoQdisc(10ms, 2048)
//	│            └── long:  SparseQdisc
//	│                       ├── sparse: FifoQdisc(10ms, 2048)
//	│                       └── bulk:   TcpAckFilterQdisc(DrrQdisc(100ms, 2048, quantum=1500))
//	└── default: SparseQdisc
//	             ├── sparse: FifoQdisc(10ms, 2048)
//	             └── bulk:   TcpAckFilterQdisc(ClassDrrQdisc(class 0: quantum 1500, class 1: quantum 15000))
//
// wrapped in a MonitorQdisc named "RootPipeline" for instrumentation.
func BuildTree(cfg Config) *qdisc.MonitorQdisc[ingress.Message, qdisc.FiveTuple] {
	type M = ingress.Message
	type K = qdisc.FiveTuple

	defaultBulk := qdisc.NewClassDrrQdisc[M, K, int](bulkClass, func() qdisc.Qdisc[M, K] {
		return qdisc.NewDrrQdisc[M, K](100, 2048, 1500)
	})
	defaultQdisc := qdisc.NewSparseQdisc[M, K](
		qdisc.NewFifoQdisc[M, K](10, 2048),
		qdisc.NewTcpAckFilterQdisc[M, K](defaultBulk),
	)

	highLong := qdisc.NewSparseQdisc[M, K](
		qdisc.NewFifoQdisc[M, K](10, 2048),
		qdisc.NewTcpAckFilterQdisc[M, K](qdisc.NewDrrQdisc[M, K](100, 2048, 1500)),
	)
	highQdisc := qdisc.NewDualFairQdisc[M, K](
		qdisc.NewFifoQdisc[M, K](10, 2048),
		highLong,
		1500,
		highLane,
	)

	globalBucket := qdisc.NewTokenBucket(cfg.GlobalRateBps, cfg.GlobalBurstByte, "global")
	highBucket := qdisc.NewTokenBucket(cfg.HighRateBps, cfg.HighBurstByte, "high_priority")

	root := qdisc.NewRootHtbQdisc[M, K](
		highQdisc, defaultQdisc, globalBucket, highBucket, cfg.ReservedBytes(), htbHighPriority,
	)

	return qdisc.NewMonitorQdisc[M, K]("RootPipeline", root)
}
