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

// Package ingress defines the contract between the shaping engine and the
// kernel packet-queue collaborator that hands it raw IPv4 frames. Binding
// this contract to a live NFQUEUE socket requires netlink/cgo plumbing that
// is out of scope here; a channel-backed mock satisfies the contract for
// tests, demos, and the daemon's -fixture mode.
package ingress

import "errors"

// ErrWouldBlock is returned by Recv when a queue has no message pending.
// Callers treat it like io.EOF on an empty, still-open stream: try the next
// queue, don't treat it as fatal.
var ErrWouldBlock = errors.New("ingress: would block")

// ErrClosed is returned by Recv and Verdict once Close has been called.
var ErrClosed = errors.New("ingress: queue closed")

// Verdict is the kernel-facing disposition of a received message.
type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictDrop
)

// Message is a single raw IPv4 frame handed up from a numbered kernel queue.
type Message interface {
	// Payload returns the raw IPv4 bytes. The returned slice is owned by the
	// Message and must not be retained past the matching Verdict call.
	Payload() []byte
	// QueueNum reports the numbered queue this message arrived on.
	QueueNum() int
}

// PacketQueue is the non-blocking receive/verdict surface the ingestion
// loop drives across all configured queues every round.
type PacketQueue interface {
	// Recv returns the next pending message, or ErrWouldBlock if none is
	// ready. It never blocks.
	Recv() (Message, error)
	// Verdict reports the kernel-facing disposition for a message
	// previously returned by Recv.
	Verdict(msg Message, v Verdict) error
	Close() error
}
