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

// Package world drives a set of machines from a shared charge grid at a fixed
// timestep.
//
// Machines are independent: Step ticks them concurrently with bounded
// parallelism and the only shared state is the grid, which arbitrates its own
// draws. Run repeats Step on a clock ticker until the context ends.
package world
