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

// Package item defines item identifiers, stacks, the tag catalog and the
// ingredient predicate used by recipes to match input stacks.
//
// Item IDs are namespaced ("minecraft:cobblestone"). Tags group items under an
// alias ("ores/iron"); a tag ingredient resolves its members at match time, so
// recipes follow catalog changes without re-registration.
//
//	cat := item.NewCatalog()
//	cat.Tag("ores/iron", "minecraft:iron_ore", "minecraft:deepslate_iron_ore")
//	in := item.Tagged(cat, "ores/iron")
//	in.Test(item.NewStack("minecraft:iron_ore", 1)) // true
package item
