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

package recipe

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
)

// ExportTarget is an external crafting registry that accepts recipes.
type ExportTarget interface {
	Add(r *Recipe) error
}

// ExportReport summarizes one export pass.
type ExportReport struct {
	Exported []ID          `json:"exported" yaml:"exported"`
	Skipped  []ID          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failed   map[ID]string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithNamespace sets the namespace used for derived recipe names.
func WithNamespace(ns string) Option {
	return func(r *Registry) {
		if ns != "" {
			r.namespace = ns
		}
	}
}

// WithGroup sets the default export group.
func WithGroup(group string) Option {
	return func(r *Registry) {
		if group != "" {
			r.group = group
		}
	}
}

// WithTags sets the tag source used by tag ingredients defined through the registry.
func WithTags(src item.TagSource) Option {
	return func(r *Registry) {
		r.tags = src
	}
}

// Registry is an ordered, append-only collection of recipes. Resolution scans
// in registration order and the first match wins. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	recipes   []*Recipe
	byID      map[ID]*Recipe
	exported  map[ID]struct{}
	namespace string
	group     string
	tags      item.TagSource
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byID:      make(map[ID]*Recipe),
		exported:  make(map[ID]struct{}),
		namespace: defaults.Namespace,
		group:     defaults.RecipeGroup,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tags returns the tag source configured for the registry, which may be nil.
func (r *Registry) Tags() item.TagSource {
	return r.tags
}

// Resolve returns the first registered recipe whose input matches s.
// An empty stack never resolves.
func (r *Registry) Resolve(s item.Stack) (*Recipe, bool) {
	if s.IsEmpty() {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.recipes {
		if rec.Matches(s) {
			resolutionsTotal.WithLabelValues("hit").Inc()
			return rec, true
		}
	}
	resolutionsTotal.WithLabelValues("miss").Inc()
	return nil, false
}

// Recipes returns all recipes in registration order.
func (r *Registry) Recipes() []*Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.recipes)
}

// Lookup returns the recipe registered under id.
func (r *Registry) Lookup(id ID) (*Recipe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	return rec, ok
}

// Len returns the number of registered recipes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recipes)
}

// Satisfiable returns the recipes whose input can currently match at least one
// item. Tag ingredients resolving to no items are filtered out, as they could
// never be shown or crafted. Order is preserved.
func (r *Registry) Satisfiable() []*Recipe {
	all := r.Recipes()
	out := make([]*Recipe, 0, len(all))
	for _, rec := range all {
		in := rec.Input()
		if !in.IsWildcard() && len(in.Alternatives()) == 0 {
			slog.Debug("skipping recipe with empty input", "recipe", rec.ID(), "input", in.String())
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ExportAll offers every satisfiable recipe to target. See Export.
func (r *Registry) ExportAll(target ExportTarget) ExportReport {
	return r.Export(target, r.Satisfiable())
}

// Export offers recipes to target. Recipes already exported from this registry
// are skipped, so repeated passes never add duplicates. A failed Add is
// reported and may be retried by a later pass.
func (r *Registry) Export(target ExportTarget, recipes []*Recipe) ExportReport {
	report := ExportReport{Exported: []ID{}}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recipes {
		if _, done := r.exported[rec.ID()]; done {
			report.Skipped = append(report.Skipped, rec.ID())
			exportsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if err := target.Add(rec); err != nil {
			if report.Failed == nil {
				report.Failed = make(map[ID]string)
			}
			report.Failed[rec.ID()] = err.Error()
			exportsTotal.WithLabelValues("failed").Inc()
			slog.Warn("recipe export failed", "recipe", rec.ID(), "error", err)
			continue
		}
		r.exported[rec.ID()] = struct{}{}
		report.Exported = append(report.Exported, rec.ID())
		exportsTotal.WithLabelValues("exported").Inc()
	}
	slog.Debug("recipe export complete",
		"exported", len(report.Exported),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed))
	return report
}

// add appends rec, deriving a unique ID from base when requested.
func (r *Registry) add(rec *Recipe, base string, derived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ID(base)
	if derived {
		for n := 1; ; n++ {
			if _, taken := r.byID[id]; !taken {
				break
			}
			id = ID(fmt.Sprintf("%s_%d", base, n))
		}
	} else if _, taken := r.byID[id]; taken {
		return errors.NewWithContext(errors.ErrCodeConflict, "recipe name already registered",
			map[string]any{"recipe": base})
	}
	rec.id = id
	r.recipes = append(r.recipes, rec)
	r.byID[id] = rec
	return nil
}
