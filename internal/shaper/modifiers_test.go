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
	"testing"
	"time"

	"github.com/Tom-Plants/UserSpaceQOS/internal/ingress"
	"github.com/Tom-Plants/UserSpaceQOS/pkg/qdisc"
)

func TestBuildModifiersRoutesVpnVsPlainQueues(t *testing.T) {
	chains := buildModifiers()

	for _, q := range []int{0, 1, 2, 3} {
		if _, ok := chains[q]; !ok {
			t.Fatalf("queue %d missing a modifier chain", q)
		}
	}
	for _, q := range []int{4, 5} {
		if _, ok := chains[q]; !ok {
			t.Fatalf("queue %d missing a modifier chain", q)
		}
	}
}

func TestVpnChainAppliesPaddingFragmentAndOverhead(t *testing.T) {
	payload := buildIPv4UDP(1000, 2000, 97)
	msg := ingress.NewMessage(payload, 0)
	ctx := qdisc.New[ingress.Message, qdisc.FiveTuple](msg, qdisc.ParseFiveTuple(payload), len(payload), 0, time.Now())

	chains := buildModifiers()
	chains[0].Run(&ctx)

	// len(payload) = 125; padded to the next 16-byte multiple = 128;
	// fragments at WG_MTU=1280 = 1; overhead adds OverheadVPN per fragment.
	wantCost := 128 + OverheadVPN
	if ctx.Cost != wantCost {
		t.Fatalf("Cost = %d, want %d", ctx.Cost, wantCost)
	}
	if ctx.Frames != 1 {
		t.Fatalf("Frames = %d, want 1", ctx.Frames)
	}
}

func TestPlainChainSkipsPadding(t *testing.T) {
	payload := buildIPv4UDP(1000, 2000, 101) // total len 129, not 16-aligned
	msg := ingress.NewMessage(payload, 4)
	ctx := qdisc.New[ingress.Message, qdisc.FiveTuple](msg, qdisc.ParseFiveTuple(payload), len(payload), 4, time.Now())

	chains := buildModifiers()
	chains[4].Run(&ctx)

	wantCost := len(payload) + OverheadPlain
	if ctx.Cost != wantCost {
		t.Fatalf("Cost = %d, want %d (no padding on the plain lane)", ctx.Cost, wantCost)
	}
}
