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

// nowFunc is swapped out in tests that need deterministic timestamps.
var nowFunc = time.Now

// Modifier mutates a PacketContext in place as part of the per-lane cost
// accounting chain. Modifiers never fail the packet; on malformed input they
// degrade to a no-op rather than panicking.
type Modifier[T any, K comparable] interface {
	Process(ctx *PacketContext[T, K])
}

// Chain is an ordered list of modifiers applied in sequence.
type Chain[T any, K comparable] []Modifier[T, K]

// Run applies every modifier in order.
func (c Chain[T, K]) Run(ctx *PacketContext[T, K]) {
	for _, m := range c {
		m.Process(ctx)
	}
}

const (
	tcpFlagACK = 0x10
)

// TcpAckSniff inspects the IPv4+TCP headers reachable from a byte-viewable
// payload and marks the context as a pure ACK (ACK flag set, zero payload)
// recording the TCP acknowledgement number. It requires the payload
// accessor so it can work across any T that exposes raw bytes.
type TcpAckSniff[T any, K comparable] struct {
	// Payload extracts the raw IPv4 bytes from T.
	Payload func(T) []byte
}

// NewTcpAckSniff builds a TcpAckSniff reading payload bytes via accessor.
func NewTcpAckSniff[T any, K comparable](accessor func(T) []byte) TcpAckSniff[T, K] {
	return TcpAckSniff[T, K]{Payload: accessor}
}

func (m TcpAckSniff[T, K]) Process(ctx *PacketContext[T, K]) {
	payload := m.Payload(ctx.Msg)

	hdrLen := ihl(payload)
	if hdrLen == 0 || payload[9] != protoTCP {
		return
	}

	totalLen := int(payload[2])<<8 | int(payload[3])
	if totalLen == 0 || totalLen > len(payload) {
		return
	}

	tcpStart := hdrLen
	if len(payload) < tcpStart+20 {
		return
	}

	dataOffset := int(payload[tcpStart+12]>>4) * 4
	flags := payload[tcpStart+13]

	headerOnly := hdrLen+dataOffset == totalLen
	if !headerOnly || flags&tcpFlagACK == 0 {
		return
	}

	ackNum := uint32(payload[tcpStart+8])<<24 |
		uint32(payload[tcpStart+9])<<16 |
		uint32(payload[tcpStart+10])<<8 |
		uint32(payload[tcpStart+11])

	ctx.IsPureAck = true
	ctx.TcpAckNum = ackNum
}

// Padding rounds Cost up to the next multiple of block, emulating
// encryption block alignment (e.g. a VPN tunnel's cipher block size).
type Padding[T any, K comparable] struct {
	Block int
}

func NewPadding[T any, K comparable](block int) Padding[T, K] {
	return Padding[T, K]{Block: block}
}

func (m Padding[T, K]) Process(ctx *PacketContext[T, K]) {
	if m.Block <= 0 {
		return
	}
	rem := ctx.Cost % m.Block
	if rem != 0 {
		ctx.Cost += m.Block - rem
	}
}

// Fragment sets Frames to the number of mtu-sized fragments Cost would
// occupy on the wire, minimum 1.
type Fragment[T any, K comparable] struct {
	Mtu int
}

func NewFragment[T any, K comparable](mtu int) Fragment[T, K] {
	return Fragment[T, K]{Mtu: mtu}
}

func (m Fragment[T, K]) Process(ctx *PacketContext[T, K]) {
	if m.Mtu <= 0 {
		ctx.Frames = 1
		return
	}
	frames := (ctx.Cost + m.Mtu - 1) / m.Mtu
	if frames < 1 {
		frames = 1
	}
	ctx.Frames = frames
}

// Overhead adds per-fragment link overhead to Cost.
type Overhead[T any, K comparable] struct {
	Bytes int
}

func NewOverhead[T any, K comparable](bytes int) Overhead[T, K] {
	return Overhead[T, K]{Bytes: bytes}
}

func (m Overhead[T, K]) Process(ctx *PacketContext[T, K]) {
	ctx.Cost += m.Bytes * ctx.Frames
}

// TrueLength restores PktLen from the IPv4 header's Total Length field when
// the kernel handed over a truncated copy of the packet. It is optional and
// disabled unless wired into a lane's chain explicitly: the header length
// claim is honored only up to MaxRestore bytes past what was actually
// captured, and malformed headers are left untouched rather than causing a
// panic.
type TrueLength[T any, K comparable] struct {
	Payload    func(T) []byte
	MaxRestore int
}

func NewTrueLength[T any, K comparable](accessor func(T) []byte, maxRestore int) TrueLength[T, K] {
	return TrueLength[T, K]{Payload: accessor, MaxRestore: maxRestore}
}

func (m TrueLength[T, K]) Process(ctx *PacketContext[T, K]) {
	payload := m.Payload(ctx.Msg)
	if ihl(payload) == 0 {
		return
	}

	totalLen := int(payload[2])<<8 | int(payload[3])
	captured := len(payload)
	if totalLen <= captured {
		return
	}

	restored := totalLen
	if restored > captured+m.MaxRestore {
		restored = captured + m.MaxRestore
	}
	if restored > ctx.PktLen {
		ctx.PktLen = restored
	}
}
