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

func payloadOf(msg ingress.Message) []byte { return msg.Payload() }

// vpnChain is the per-packet modifier chain for queues 0-3 (WireGuard
// tunneled traffic): ACK sniffing, cipher-block padding, MTU fragmentation
// at the tunnel's reduced MTU, then tunnel+outer-frame overhead.
func vpnChain() qdisc.Chain[ingress.Message, qdisc.FiveTuple] {
	return qdisc.Chain[ingress.Message, qdisc.FiveTuple]{
		qdisc.NewTcpAckSniff[ingress.Message, qdisc.FiveTuple](payloadOf),
		qdisc.NewPadding[ingress.Message, qdisc.FiveTuple](PaddingBlock),
		qdisc.NewFragment[ingress.Message, qdisc.FiveTuple](WireGuardMTU),
		qdisc.NewOverhead[ingress.Message, qdisc.FiveTuple](OverheadVPN),
	}
}

// plainChain is the per-packet modifier chain for queues 4-5 (untunneled
// traffic): ACK sniffing, Ethernet-MTU fragmentation, plain frame overhead.
func plainChain() qdisc.Chain[ingress.Message, qdisc.FiveTuple] {
	return qdisc.Chain[ingress.Message, qdisc.FiveTuple]{
		qdisc.NewTcpAckSniff[ingress.Message, qdisc.FiveTuple](payloadOf),
		qdisc.NewFragment[ingress.Message, qdisc.FiveTuple](EthernetMTU),
		qdisc.NewOverhead[ingress.Message, qdisc.FiveTuple](OverheadPlain),
	}
}

// buildModifiers returns the per-queue-number modifier chain table, matching
// the tunneled/plain split across the six numbered queues.
func buildModifiers() map[int]qdisc.Chain[ingress.Message, qdisc.FiveTuple] {
	chains := make(map[int]qdisc.Chain[ingress.Message, qdisc.FiveTuple], NumQueues)
	vpn := vpnChain()
	plain := plainChain()
	for _, q := range []int{0, 1, 2, 3} {
		chains[q] = vpn
	}
	for _, q := range []int{4, 5} {
		chains[q] = plain
	}
	return chains
}
