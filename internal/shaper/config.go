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

// Package shaper composes the pkg/qdisc primitives into the six-queue
// packet-shaping tree and drives the ingestion/verdict loop around it.
package shaper

import "time"

// Fixed protocol/overhead constants. These never vary per deployment; only
// the rate/burst knobs in Config are meant to be tuned.
const (
	// VPN overhead: Ethernet(14) + WireGuard(4) + outer IPv4(20) + outer UDP+noise(60).
	OverheadVPN = 14 + 4 + 20 + 60
	// Plain overhead: Ethernet(18, with FCS) + IPv4(20).
	OverheadPlain = 18 + 20

	WireGuardMTU = 1280
	EthernetMTU  = 1500

	PaddingBlock = 16

	// BatchLimit bounds how many packets a single ingestion round will
	// drain across all queues before yielding to the dequeue phase.
	BatchLimit = 10000

	// QueueMaxLen is the per-queue resident-message cap handed to the
	// kernel queue collaborator (or the mock, in -fixture mode).
	QueueMaxLen = 10000

	// NumQueues is the number of numbered kernel queues the tree classifies
	// traffic across: 0-3 are VPN-tunneled lanes, 4-5 are plain lanes.
	NumQueues = 6

	idleSleep = 100 * time.Microsecond
)

// Config holds the tunable rate-limiting knobs, defaulting to the values
// the shaper was originally tuned against.
type Config struct {
	GlobalRateBps   float64
	GlobalBurstByte float64
	HighRateBps     float64
	HighBurstByte   float64

	MetricsAddr   string
	DashboardAddr string
	Fixture       bool
}

// DefaultConfig returns the baseline tuning: a 6.9 Mbit/s global ceiling
// with a 290 KiB burst, and a 6.0 Mbit/s high-priority lane with an 80 KiB
// burst reserved out of the global bucket.
func DefaultConfig() Config {
	return Config{
		GlobalRateBps:   6.9 * 1000 * 1000 / 8,
		GlobalBurstByte: 1024 * 290,
		HighRateBps:     6.0 * 1000 * 1000 / 8,
		HighBurstByte:   1024 * 80,
		MetricsAddr:     ":9090",
		DashboardAddr:   ":8081",
	}
}

// ReservedBytes is the headroom the default lane must clear against the
// global bucket on top of its own packet cost, equal to the high lane's
// burst so a sudden high-priority burst is never starved by a default-lane
// packet that just barely fit.
func (c Config) ReservedBytes() int {
	return int(c.HighBurstByte)
}
