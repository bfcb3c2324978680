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
	"fmt"
	"slices"
	"strings"
)

// Ingredient is a predicate over a single stack. It accepts a fixed item set,
// the members of a tag, or any non-empty stack, with an optional minimum count.
type Ingredient struct {
	items    []ID
	tag      string
	tags     TagSource
	wildcard bool
	min      int
}

// Of accepts any of the listed items.
func Of(ids ...ID) Ingredient {
	return Ingredient{items: slices.Clone(ids)}
}

// Tagged accepts the items carrying tag in src at match time.
func Tagged(src TagSource, tag string) Ingredient {
	return Ingredient{tag: tag, tags: src}
}

// Any accepts every non-empty stack.
func Any() Ingredient {
	return Ingredient{wildcard: true}
}

// AtLeast returns a copy of i that additionally requires n items in the stack.
func (i Ingredient) AtLeast(n int) Ingredient {
	i.min = n
	return i
}

// MinCount is the smallest stack the ingredient accepts.
func (i Ingredient) MinCount() int {
	return max(1, i.min)
}

// Test reports whether s satisfies the ingredient.
func (i Ingredient) Test(s Stack) bool {
	if s.IsEmpty() || s.Count < i.MinCount() {
		return false
	}
	switch {
	case i.wildcard:
		return true
	case i.tag != "":
		return i.tags != nil && slices.Contains(i.tags.ItemsWithTag(i.tag), s.Item)
	default:
		return slices.Contains(i.items, s.Item)
	}
}

// Alternatives lists the concrete items the ingredient currently resolves to.
// Wildcards return nil.
func (i Ingredient) Alternatives() []ID {
	switch {
	case i.wildcard:
		return nil
	case i.tag != "":
		if i.tags == nil {
			return []ID{}
		}
		return i.tags.ItemsWithTag(i.tag)
	default:
		return slices.Clone(i.items)
	}
}

// IsWildcard reports whether the ingredient accepts every stack.
func (i Ingredient) IsWildcard() bool {
	return i.wildcard
}

// Tag returns the tag name for tag ingredients.
func (i Ingredient) Tag() string {
	return i.tag
}

// IsDefined reports whether the ingredient can ever match something.
// A tag ingredient is defined even while its tag is empty.
func (i Ingredient) IsDefined() bool {
	return i.wildcard || i.tag != "" || len(i.items) > 0
}

func (i Ingredient) String() string {
	var b strings.Builder
	switch {
	case i.wildcard:
		b.WriteString("*")
	case i.tag != "":
		b.WriteString("#" + i.tag)
	default:
		parts := make([]string, len(i.items))
		for n, id := range i.items {
			parts[n] = string(id)
		}
		b.WriteString(strings.Join(parts, "|"))
	}
	if i.min > 1 {
		fmt.Fprintf(&b, "*%d", i.min)
	}
	return b.String()
}
