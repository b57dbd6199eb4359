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
	"context"
	"time"

	"github.com/Tom-Plants/UserSpaceQOS/internal/ingress"
	"github.com/Tom-Plants/UserSpaceQOS/internal/obslog"
	"github.com/Tom-Plants/UserSpaceQOS/pkg/qdisc"
)

// Engine owns the shaping tree and drives the receive/enqueue/dequeue/
// verdict cycle across a fixed set of numbered kernel queues.
type Engine struct {
	queues    []ingress.PacketQueue
	pipeline  *qdisc.MonitorQdisc[ingress.Message, qdisc.FiveTuple]
	modifiers map[int]qdisc.Chain[ingress.Message, qdisc.FiveTuple]
}

// NewEngine builds an Engine over queues, indexed by queue number (len(queues)
// must equal NumQueues; queues[i] must be bound to queue number i).
func NewEngine(cfg Config, queues []ingress.PacketQueue) *Engine {
	return &Engine{
		queues:    queues,
		pipeline:  BuildTree(cfg),
		modifiers: buildModifiers(),
	}
}

// Pipeline exposes the underlying instrumented tree, e.g. for the
// reporter/metrics surfaces to read published snapshots from.
func (e *Engine) Pipeline() *qdisc.MonitorQdisc[ingress.Message, qdisc.FiveTuple] {
	return e.pipeline
}

// Run drives the ingestion loop until ctx is cancelled: each round
// round-robins a non-blocking Recv across every queue (capped at
// BatchLimit total receives), stamps and shapes each message, drains the
// pipeline by repeated Dequeue issuing Accept verdicts, reaps expired/
// superseded contexts via CollectDropped issuing Drop verdicts, and sleeps
// briefly when a round did no work at all. ctx cancellation is the only
// concession to the ambient graceful-shutdown contract: no qdisc consults
// it, since the tree itself is synchronous and non-blocking.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.drainFinal()
			return
		default:
		}

		working := e.receiveRound()
		if e.dequeueRound() {
			working = true
		}
		if e.reapRound() {
			working = true
		}

		if !working {
			select {
			case <-ctx.Done():
				e.drainFinal()
				return
			case <-time.After(idleSleep):
			}
		}
	}
}

// receiveRound polls every queue round-robin, non-blocking, until either
// BatchLimit messages have been drained or a full pass sees nothing
// pending. It reports whether any message was received.
func (e *Engine) receiveRound() bool {
	working := false
	received := 0

	for received < BatchLimit {
		noPacket := true
		for i, q := range e.queues {
			msg, err := q.Recv()
			if err != nil {
				continue
			}
			noPacket = false
			working = true
			received++

			e.ingestOne(i, q, msg)

			if received >= BatchLimit {
				break
			}
		}
		if noPacket {
			break
		}
	}

	return working
}

func (e *Engine) ingestOne(queueNum int, q ingress.PacketQueue, msg ingress.Message) {
	payload := msg.Payload()
	key := qdisc.ParseFiveTuple(payload)
	arrival := time.Now()

	pktCtx := qdisc.New[ingress.Message, qdisc.FiveTuple](msg, key, len(payload), queueNum, arrival)
	if chain, ok := e.modifiers[queueNum]; ok {
		chain.Run(&pktCtx)
	}

	if rejected, ok := e.pipeline.Enqueue(pktCtx); !ok {
		e.verdict(q, rejected.Msg, ingress.VerdictDrop)
	}
}

// dequeueRound drains the pipeline by repeated Dequeue, issuing Accept
// verdicts, until it returns empty. It reports whether anything was sent.
func (e *Engine) dequeueRound() bool {
	working := false
	for {
		ctx, ok := e.pipeline.Dequeue()
		if !ok {
			break
		}
		working = true
		e.verdict(e.queueFor(ctx.QueueNum), ctx.Msg, ingress.VerdictAccept)
	}
	return working
}

// reapRound issues Drop verdicts for every context CollectDropped surfaces
// (overflow, expiry, or ACK-supersede drops from anywhere in the tree).
func (e *Engine) reapRound() bool {
	dropped := e.pipeline.CollectDropped()
	for _, ctx := range dropped {
		e.verdict(e.queueFor(ctx.QueueNum), ctx.Msg, ingress.VerdictDrop)
	}
	return len(dropped) > 0
}

// drainFinal flushes one last CollectDropped pass on shutdown, per the
// graceful-shutdown contract.
func (e *Engine) drainFinal() {
	e.reapRound()
}

func (e *Engine) queueFor(queueNum int) ingress.PacketQueue {
	if queueNum < 0 || queueNum >= len(e.queues) {
		return nil
	}
	return e.queues[queueNum]
}

func (e *Engine) verdict(q ingress.PacketQueue, msg ingress.Message, v ingress.Verdict) {
	if q == nil || msg == nil {
		return
	}
	if err := q.Verdict(msg, v); err != nil {
		obslog.Logger.Warn().Err(err).Int("queue_num", msg.QueueNum()).Msg("verdict failed")
	}
}
