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

// Package store persists machine snapshots so a daemon can resume where it
// stopped.
//
// Two implementations are provided:
//
//   - FileStore keeps one YAML or JSON document per machine in a directory.
//   - ConfigMapStore keeps one ConfigMap per machine in a Kubernetes namespace.
//
// Open picks the implementation from a location string: "cm://<namespace>"
// selects ConfigMaps, anything else is treated as a directory.
//
//	st, err := store.Open("state/")
//	if err != nil {
//	    return err
//	}
//	if err := st.Save(ctx, m.Snapshot(version)); err != nil {
//	    return err
//	}
package store
