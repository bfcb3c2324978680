// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package machine

// State is the outcome of the most recent tick.
type State string

const (
	// StateIdle means no input is present.
	StateIdle State = "IDLE"
	// StateStalled means a recipe is active but the step charge could not be paid.
	StateStalled State = "STALLED"
	// StateRunning means progress advanced this tick.
	StateRunning State = "RUNNING"
	// StateOutputBlocked means the batch is finished but its outputs do not fit.
	StateOutputBlocked State = "OUTPUT_BLOCKED"
	// StateCompleted means a batch was committed this tick.
	StateCompleted State = "COMPLETED"
)

// States lists every state in declaration order.
var States = []State{StateIdle, StateStalled, StateRunning, StateOutputBlocked, StateCompleted}

func (s State) String() string {
	return string(s)
}
