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

// Package serializer writes and reads millwork documents in JSON, YAML and
// table form.
//
// Writers target stdout, a file or a Kubernetes ConfigMap (cm://namespace/name):
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer w.Close()
//	if err := w.Serialize(ctx, status); err != nil {
//		return err
//	}
//
// Readers decode JSON or YAML from files or HTTP(S) URLs:
//
//	snap, err := serializer.FromFile[machine.Snapshot]("state/crusher-1.yaml")
//
// For HTTP responses:
//
//	serializer.RespondJSON(w, http.StatusOK, data)
//
// The table format flattens nested structures into dotted keys and is
// write-only.
package serializer
