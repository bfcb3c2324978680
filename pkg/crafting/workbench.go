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

package crafting

import (
	"sort"
	"strconv"
	"sync"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/header"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/recipe"
)

// Workbench is a keyed recipe registry. It satisfies recipe.ExportTarget.
type Workbench struct {
	mu      sync.RWMutex
	name    string
	recipes map[recipe.ID]*recipe.Recipe
	order   []recipe.ID
}

// NewWorkbench returns an empty workbench.
func NewWorkbench(name string) *Workbench {
	return &Workbench{
		name:    name,
		recipes: make(map[recipe.ID]*recipe.Recipe),
	}
}

// Add registers r. Adding an ID twice is a conflict.
func (w *Workbench) Add(r *recipe.Recipe) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "recipe is nil")
	}
	if r.IsSink() {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "sink recipes cannot be crafted",
			map[string]any{"recipe": r.ID()})
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.recipes[r.ID()]; exists {
		return errors.NewWithContext(errors.ErrCodeConflict, "recipe already present on workbench",
			map[string]any{"recipe": r.ID(), "workbench": w.name})
	}
	w.recipes[r.ID()] = r
	w.order = append(w.order, r.ID())
	return nil
}

// Get returns the recipe stored under id.
func (w *Workbench) Get(id recipe.ID) (*recipe.Recipe, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.recipes[id]
	return r, ok
}

// Len returns the number of recipes.
func (w *Workbench) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.recipes)
}

// Find returns every recipe accepting s, in the order they were added.
func (w *Workbench) Find(s item.Stack) []*recipe.Recipe {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*recipe.Recipe
	for _, id := range w.order {
		if r := w.recipes[id]; r.Matches(s) {
			out = append(out, r)
		}
	}
	return out
}

// Listing is the serializable view of a workbench.
type Listing struct {
	header.Header `json:",inline" yaml:",inline"`

	Name    string           `json:"name" yaml:"name"`
	Groups  []string         `json:"groups" yaml:"groups"`
	Recipes []recipe.Summary `json:"recipes" yaml:"recipes"`
}

// Listing snapshots the workbench contents sorted by ID.
func (w *Workbench) Listing(version string) *Listing {
	w.mu.RLock()
	ids := make([]recipe.ID, 0, len(w.recipes))
	for id := range w.recipes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	l := &Listing{Name: w.name, Groups: []string{}, Recipes: make([]recipe.Summary, 0, len(ids))}
	groups := make(map[string]struct{})
	for _, id := range ids {
		r := w.recipes[id]
		l.Recipes = append(l.Recipes, r.Summarize())
		if _, seen := groups[r.Group()]; !seen && r.Group() != "" {
			groups[r.Group()] = struct{}{}
			l.Groups = append(l.Groups, r.Group())
		}
	}
	w.mu.RUnlock()

	sort.Strings(l.Groups)
	l.Init(header.KindWorkbench, header.APIVersion, version)
	l.Metadata["recipes"] = strconv.Itoa(len(l.Recipes))
	return l
}
