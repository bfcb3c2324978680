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

// Package charge models the consumable resource that gates machine progress:
// a bounded per-machine Pool, the Provider pull contract of the external
// distribution network, and a shared in-process Grid.
//
// Each tick a machine tops its pool up with a single bounded Draw and then
// pays a fixed cost per step. A provider that is unreachable is not an error
// for the machine; the top-up for that tick is simply zero.
package charge
