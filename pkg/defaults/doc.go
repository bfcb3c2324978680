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

// Package defaults provides centralized configuration constants for millwork.
//
// Machine constants (slot counts, charge capacity, step cost, sink duration)
// define the behaviour of a processing machine when no explicit configuration
// is provided. Timeouts are organized by component:
//
//   - World loop: tick interval, parallelism, grid supply
//   - Server timeouts: for HTTP server configuration
//   - Kubernetes and registry timeouts: snapshot stores and catalog publishing
//
// # Usage
//
//	cfg := machine.DefaultConfig() // uses defaults.ChargeCapacity, defaults.StepCost, ...
//	ctx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
package defaults
