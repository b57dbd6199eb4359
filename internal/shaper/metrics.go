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
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tom-Plants/UserSpaceQOS/pkg/statcounter"
)

// Metrics mirrors MonitorQdisc's per-queue bookkeeping as Prometheus
// collectors. Label cardinality is bounded by NumQueues (6), so plain
// *Vec collectors are safe here, unlike an unbounded per-flow metric would
// be.
type Metrics struct {
	inPkts   *prometheus.CounterVec
	outPkts  *prometheus.CounterVec
	outBytes *prometheus.CounterVec
	dropPkts *prometheus.CounterVec

	backlogPkts  *prometheus.GaugeVec
	backlogBytes *prometheus.GaugeVec
}

// NewMetrics constructs and registers the collector set against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inPkts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qos_in_packets_total",
			Help: "Total packets accepted into a queue's qdisc lane.",
		}, []string{"queue"}),
		outPkts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qos_out_packets_total",
			Help: "Total packets dequeued and accepted onto the wire.",
		}, []string{"queue"}),
		outBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qos_out_bytes_total",
			Help: "Total shaped cost bytes dequeued and accepted onto the wire.",
		}, []string{"queue"}),
		dropPkts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qos_drop_packets_total",
			Help: "Total packets dropped (overflow, expiry, or ACK supersession).",
		}, []string{"queue"}),
		backlogPkts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qos_backlog_packets",
			Help: "Packets currently resident in a queue's qdisc lane.",
		}, []string{"queue"}),
		backlogBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qos_backlog_bytes",
			Help: "Shaped cost bytes currently resident in a queue's qdisc lane.",
		}, []string{"queue"}),
	}

	reg.MustRegister(m.inPkts, m.outPkts, m.outBytes, m.dropPkts, m.backlogPkts, m.backlogBytes)
	return m
}

// Observe publishes one queue's counter snapshot. InPkts/DropPkts/OutPkts/
// OutBytes are deltas since the last ResetRates call, so they are added,
// not set; backlog is a current level, so it is set directly.
func (m *Metrics) Observe(queueNum int, snap statcounter.Snapshot) {
	label := strconv.Itoa(queueNum)
	m.inPkts.WithLabelValues(label).Add(float64(snap.InPkts))
	m.dropPkts.WithLabelValues(label).Add(float64(snap.DropPkts))
	m.outPkts.WithLabelValues(label).Add(float64(snap.OutPkts))
	m.outBytes.WithLabelValues(label).Add(float64(snap.OutBytes))
	m.backlogPkts.WithLabelValues(label).Set(float64(snap.BacklogPkts))
	m.backlogBytes.WithLabelValues(label).Set(float64(snap.BacklogBytes))
}
