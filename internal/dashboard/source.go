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

package dashboard

import "github.com/Tom-Plants/UserSpaceQOS/pkg/statcounter"

// Source decouples the dashboard from the generic MonitorQdisc type it
// reports on, so this package carries no pkg/qdisc type parameters.
type Source interface {
	PipelineName() string
	QueueNums() []int
	Snapshot(queueNum int) statcounter.Snapshot
}

func poll(src Source) StatsResponse {
	nums := src.QueueNums()
	queues := make([]QueueStats, 0, len(nums))
	for _, n := range nums {
		s := src.Snapshot(n)
		queues = append(queues, QueueStats{
			Queue:        n,
			InPkts:       s.InPkts,
			OutPkts:      s.OutPkts,
			OutBytes:     s.OutBytes,
			DropPkts:     s.DropPkts,
			BacklogPkts:  s.BacklogPkts,
			BacklogBytes: s.BacklogBytes,
		})
	}
	return StatsResponse{Pipeline: src.PipelineName(), Queues: queues}
}
