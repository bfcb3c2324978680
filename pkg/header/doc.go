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

// Package header provides the common document header for millwork data structures.
//
// Machine snapshots, recipe catalogs and exported workbench listings all embed
// Header so that persisted documents carry a kind, an API version and free-form
// metadata (timestamp, tool version, machine kind).
//
// # Usage
//
//	var snap machine.Snapshot
//	snap.Init(header.KindMachineSnapshot, header.APIVersion, version)
//
// Serialized form:
//
//	kind: MachineSnapshot
//	apiVersion: millwork.dev/v1
//	metadata:
//	  timestamp: "2026-10-18T10:30:00Z"
//	  version: v0.3.0
package header
