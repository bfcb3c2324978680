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

package item

import (
	"slices"
	"sort"
	"sync"
)

// TagSource resolves a tag to the concrete items currently carrying it.
type TagSource interface {
	ItemsWithTag(tag string) []ID
}

// Catalog is the item tag table. Tags are alias groups such as "ores/iron"
// whose membership may change while the process runs; an empty tag is valid
// and simply matches nothing.
type Catalog struct {
	mu   sync.RWMutex
	tags map[string][]ID
}

// NewCatalog returns an empty tag catalog.
func NewCatalog() *Catalog {
	return &Catalog{tags: make(map[string][]ID)}
}

// Tag adds ids to tag. Calling Tag with no ids declares an empty tag.
func (c *Catalog) Tag(tag string, ids ...ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	members := c.tags[tag]
	for _, id := range ids {
		if !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	if members == nil {
		members = []ID{}
	}
	c.tags[tag] = members
}

// Untag removes id from tag.
func (c *Catalog) Untag(tag string, id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	members := c.tags[tag]
	if i := slices.Index(members, id); i >= 0 {
		c.tags[tag] = slices.Delete(slices.Clone(members), i, i+1)
	}
}

// ItemsWithTag returns a copy of the members of tag.
func (c *Catalog) ItemsWithTag(tag string) []ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tags[tag])
}

// HasTag reports whether id carries tag.
func (c *Catalog) HasTag(id ID, tag string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.tags[tag], id)
}

// Tags returns all declared tag names, sorted.
func (c *Catalog) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tags))
	for name := range c.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
