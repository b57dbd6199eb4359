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
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tom-Plants/UserSpaceQOS/internal/obslog"
)

// Reporter periodically snapshots the Engine's MonitorQdisc counters,
// logs a per-queue summary line, publishes them to Metrics, and resets the
// per-interval rate counters (backlog is left untouched — it is a level,
// not a rate).
type Reporter struct {
	engine   *Engine
	metrics  *Metrics
	interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

// NewReporter builds a Reporter over engine, publishing to metrics every
// interval.
func NewReporter(engine *Engine, metrics *Metrics, interval time.Duration) *Reporter {
	return &Reporter{
		engine:   engine,
		metrics:  metrics,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the periodic reporting goroutine.
func (r *Reporter) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
}

// Stop signals the reporting goroutine to exit and waits for it.
func (r *Reporter) Stop() {
	if !atomic.CompareAndSwapUint32(&r.stopped, 0, 1) {
		return
	}
	close(r.stopChan)
	r.wg.Wait()
}

func (r *Reporter) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	pipeline := r.engine.Pipeline()
	nums := pipeline.QueueNums()
	sort.Ints(nums)

	for _, n := range nums {
		snap := pipeline.Counters(n).Snapshot()
		if r.metrics != nil {
			r.metrics.Observe(n, snap)
		}
		obslog.Logger.Info().
			Str("pipeline", pipeline.Name).
			Int("queue", n).
			Int64("in_pkts", snap.InPkts).
			Int64("out_pkts", snap.OutPkts).
			Int64("out_bytes", snap.OutBytes).
			Int64("drop_pkts", snap.DropPkts).
			Int64("backlog_pkts", snap.BacklogPkts).
			Int64("backlog_bytes", snap.BacklogBytes).
			Msg("qos report")
	}

	pipeline.ResetRates()
}
