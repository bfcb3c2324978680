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
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/millwork-dev/millwork/pkg/defaults"
)

// ID is a namespaced item identifier such as "minecraft:cobblestone".
type ID string

// ParseID parses "namespace:path". A bare path is placed in the default namespace.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", fmt.Errorf("item id is empty")
	}
	ns, path, found := strings.Cut(s, ":")
	if !found {
		ns, path = defaults.Namespace, s
	}
	if ns == "" || path == "" || strings.Contains(path, ":") {
		return "", fmt.Errorf("invalid item id %q: expected namespace:path", s)
	}
	return ID(ns + ":" + path), nil
}

// Namespace returns the part before the colon.
func (id ID) Namespace() string {
	ns, _, _ := strings.Cut(string(id), ":")
	return ns
}

// Path returns the part after the colon.
func (id ID) Path() string {
	_, path, found := strings.Cut(string(id), ":")
	if !found {
		return string(id)
	}
	return path
}

func (id ID) String() string {
	return string(id)
}

// DisplayName renders the path in title case, e.g. "iron_ore" -> "Iron Ore".
func (id ID) DisplayName() string {
	words := strings.ReplaceAll(id.Path(), "_", " ")
	words = strings.ReplaceAll(words, "/", " ")
	return cases.Title(language.English).String(words)
}

// Stack is a count of a single item type held in one slot.
type Stack struct {
	Item  ID  `json:"item" yaml:"item"`
	Count int `json:"count" yaml:"count"`
}

// Empty is the sentinel empty stack.
var Empty = Stack{}

// NewStack returns a stack of n items.
func NewStack(id ID, n int) Stack {
	if id == "" || n <= 0 {
		return Empty
	}
	return Stack{Item: id, Count: n}
}

// IsEmpty reports whether the stack holds nothing.
func (s Stack) IsEmpty() bool {
	return s.Item == "" || s.Count <= 0
}

// WithCount returns a copy of s holding n items. A non-positive n yields Empty.
func (s Stack) WithCount(n int) Stack {
	return NewStack(s.Item, n)
}

// Stackable reports whether o can merge into s.
func (s Stack) Stackable(o Stack) bool {
	return !s.IsEmpty() && !o.IsEmpty() && s.Item == o.Item
}

func (s Stack) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s*%d", s.Item, s.Count)
}

// ParseStack parses "namespace:path*count"; the count defaults to 1.
func ParseStack(s string) (Stack, error) {
	raw, countStr, hasCount := strings.Cut(strings.TrimSpace(s), "*")
	id, err := ParseID(raw)
	if err != nil {
		return Empty, err
	}
	count := 1
	if hasCount {
		count, err = strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return Empty, fmt.Errorf("invalid count in %q: %w", s, err)
		}
		if count <= 0 {
			return Empty, fmt.Errorf("invalid count in %q: must be positive", s)
		}
	}
	return NewStack(id, count), nil
}
