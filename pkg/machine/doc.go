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

// Package machine implements the tick-driven processing state machine.
//
// Each call to Machine.Tick runs, in order:
//
//  1. Charge top-up from the connected provider, bounded by free capacity.
//  2. Recipe resolution from the first occupied input slot, falling back to
//     the sink recipe when nothing matches.
//  3. Duration caching for a newly resolved recipe.
//  4. The step gate: one step of charge is withdrawn or the machine stalls.
//  5. Completion: outputs are simulated on a copy of the output range and
//     committed only if everything fits, otherwise the finished batch is held.
//
// The driver is fixed; machine types vary through a Policy. Processing is the
// standard policy and PolicyFuncs adapts plain functions.
//
// Slots [0, N) form the input range and [N, 2N) the output range. Extract
// never yields from the input range and CanInsert only admits items with a
// registered recipe.
//
// Snapshot and Restore persist charge, slots and progress. Whether progress
// survives a restore is selected by Config.Progress.
package machine
