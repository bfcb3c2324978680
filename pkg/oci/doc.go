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

// Package oci publishes exported recipe documents as OCI artifacts using ORAS.
//
// Package writes documents as layers into a local OCI image layout and tags
// the manifest. PushFromStore copies the tagged manifest to a registry.
// PackageAndPush combines both for "millwork export --to oci://...".
//
//	ref, err := oci.ParseOutputTarget("oci://ghcr.io/acme/recipes:v1")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.PackageAndPush(ctx, oci.PublishConfig{
//	    Layers:    []oci.Layer{{Name: "workbench.yaml", MediaType: oci.MediaTypeWorkbench, Data: data}},
//	    OutputDir: tmp,
//	    Reference: ref,
//	})
//
// Credentials come from the Docker configuration (~/.docker/config.json).
// Artifacts carry the artifact type "application/vnd.millwork.recipes.v1".
package oci
