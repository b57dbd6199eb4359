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

import "net/netip"

// FiveTuple identifies a flow: source/destination IPv4 address, protocol,
// source/destination port. It is comparable, so it can be used directly as
// a map key by the per-flow qdiscs (DrrQdisc, SparseQdisc, TcpAckFilterQdisc).
type FiveTuple struct {
	Src      netip.Addr
	Dst      netip.Addr
	Proto    uint8
	SrcPort  uint16
	DstPort  uint16
}

const (
	protoTCP = 6
	protoUDP = 17
)

// ParseFiveTuple extracts a FiveTuple from a raw IPv4 packet. Truncated or
// non-IPv4 payloads yield the zero FiveTuple, collapsing malformed traffic
// onto one shared flow bucket rather than failing.
func ParseFiveTuple(payload []byte) FiveTuple {
	var t FiveTuple

	if len(payload) < 20 {
		return t
	}
	if payload[0]>>4 != 4 {
		return t
	}

	ihl := int(payload[0]&0x0F) * 4
	if len(payload) < ihl {
		return t
	}

	t.Proto = payload[9]
	t.Src = netip.AddrFrom4([4]byte{payload[12], payload[13], payload[14], payload[15]})
	t.Dst = netip.AddrFrom4([4]byte{payload[16], payload[17], payload[18], payload[19]})

	if t.Proto == protoTCP || t.Proto == protoUDP {
		if len(payload) >= ihl+4 {
			t.SrcPort = uint16(payload[ihl])<<8 | uint16(payload[ihl+1])
			t.DstPort = uint16(payload[ihl+2])<<8 | uint16(payload[ihl+3])
		}
	}

	return t
}

// ihl returns the IPv4 header length in bytes, or 0 if payload is too short
// or not IPv4. Shared by modifiers that need to reach past the IP header.
func ihl(payload []byte) int {
	if len(payload) < 20 || payload[0]>>4 != 4 {
		return 0
	}
	n := int(payload[0]&0x0F) * 4
	if len(payload) < n {
		return 0
	}
	return n
}
