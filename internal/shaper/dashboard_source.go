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

import "github.com/Tom-Plants/UserSpaceQOS/pkg/statcounter"

// DashboardSource adapts an Engine's pipeline to internal/dashboard.Source,
// so the dashboard package never needs to know about the generic
// MonitorQdisc type underneath it.
type DashboardSource struct {
	engine *Engine
}

// NewDashboardSource wraps engine for the dashboard server to poll.
func NewDashboardSource(engine *Engine) *DashboardSource {
	return &DashboardSource{engine: engine}
}

func (d *DashboardSource) PipelineName() string {
	return d.engine.Pipeline().Name
}

func (d *DashboardSource) QueueNums() []int {
	return d.engine.Pipeline().QueueNums()
}

func (d *DashboardSource) Snapshot(queueNum int) statcounter.Snapshot {
	return d.engine.Pipeline().Counters(queueNum).Snapshot()
}
