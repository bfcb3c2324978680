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

// Package inventory provides the slot container contract used by machines,
// an in-memory implementation with a change hook, slot-range views and the
// stack operations (add with remainder, simulated fit, single-unit removal,
// extraction) needed for transactional crafting.
//
// A machine owns one Slots of 2N slots and addresses its input and output
// halves through Range views. Completion first checks Fits against a Copy of
// the output range and only then mutates the real inventory.
package inventory
