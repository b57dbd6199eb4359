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

import "testing"

func TestDashboardSourceReflectsPipelineActivity(t *testing.T) {
	e, mocks := newTestEngine(t)
	src := NewDashboardSource(e)

	if src.PipelineName() != "RootPipeline" {
		t.Fatalf("PipelineName() = %q, want RootPipeline", src.PipelineName())
	}

	mocks[4].Inject(buildIPv4UDP(1, 2, 64))
	e.receiveRound()

	found := false
	for _, n := range src.QueueNums() {
		if n == 4 {
			found = true
		}
	}
	if !found {
		t.Fatalf("QueueNums() = %v, want to include queue 4 after ingestion", src.QueueNums())
	}
	if snap := src.Snapshot(4); snap.InPkts != 1 {
		t.Fatalf("Snapshot(4).InPkts = %d, want 1", snap.InPkts)
	}
}
