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

// Package dashboard exposes MonitorQdisc's published per-queue counters
// over HTTP: a polled JSON snapshot and a Server-Sent Events stream, for
// the periodic statistics dashboard the shaping engine names as an
// external collaborator.
package dashboard

// QueueStats is the JSON shape of one queue's counter snapshot.
type QueueStats struct {
	Queue        int   `json:"queue"`
	InPkts       int64 `json:"in_pkts"`
	OutPkts      int64 `json:"out_pkts"`
	OutBytes     int64 `json:"out_bytes"`
	DropPkts     int64 `json:"drop_pkts"`
	BacklogPkts  int64 `json:"backlog_pkts"`
	BacklogBytes int64 `json:"backlog_bytes"`
}

// StatsResponse is the JSON message sent to API and SSE clients.
type StatsResponse struct {
	Pipeline  string       `json:"pipeline"`
	Queues    []QueueStats `json:"queues"`
	UpdatedAt string       `json:"updated_at"`
}
