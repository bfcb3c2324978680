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

// Package recipe defines processing recipes and the ordered registry that
// resolves them.
//
// # Overview
//
// A Recipe maps a qualifying input stack to zero or more outputs and a step
// count. Recipes are registered through a validating Builder and resolved by
// Registry.Resolve, which returns the first recipe in registration order whose
// input matches. Register more specific recipes before general ones.
//
//	reg := recipe.NewRegistry(recipe.WithTags(tags))
//	res := reg.Define(item.Of("minecraft:cobblestone")).
//		Output("minecraft:gravel", 1).
//		OutputChance("minecraft:flint", 1, 0.1).
//		Duration(120).
//		Register()
//	if !res.OK() {
//		// res.Err is an INVALID_RECIPE structured error; the registry is unchanged
//	}
//
// # Validation
//
// Register rejects recipes that declare no outputs without calling NoOutput,
// carry an invalid output, or whose duration is not positive for the empty
// input. Rejections are logged, counted and returned; later registrations are
// unaffected so a batch can partially succeed.
//
// # Sink
//
// NewSink builds the fallback used by machines when nothing matches. It accepts
// any stack, yields nothing and is never part of a registry.
//
// # Export
//
// ExportAll republishes satisfiable recipes into an ExportTarget. Each recipe
// ID is exported at most once per registry.
//
// # Catalogs
//
// LoadCatalog registers recipes from a YAML document of kind RecipeCatalog.
package recipe
