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
	"math/rand/v2"
	"slices"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/item"
)

// ID is a namespaced recipe identifier.
type ID string

func (id ID) String() string {
	return string(id)
}

// DurationFunc computes the number of steps needed to process the given input.
type DurationFunc func(input item.Stack) int

// Output is one declared yield. A Chance of 0 or 1 means the yield is guaranteed.
type Output struct {
	Item   item.ID `json:"item" yaml:"item"`
	Count  int     `json:"count" yaml:"count"`
	Chance float64 `json:"chance,omitempty" yaml:"chance,omitempty"`
}

func (o Output) probability() float64 {
	if o.Chance <= 0 || o.Chance >= 1 {
		return 1
	}
	return o.Chance
}

// Recipe maps a qualifying input stack to a set of outputs and a step count.
// Recipes are immutable once registered.
type Recipe struct {
	id       ID
	group    string
	input    item.Ingredient
	outputs  []Output
	duration DurationFunc
	sink     bool
}

// ID returns the recipe identifier.
func (r *Recipe) ID() ID {
	return r.id
}

// Group returns the export group.
func (r *Recipe) Group() string {
	return r.group
}

// Input returns the input ingredient.
func (r *Recipe) Input() item.Ingredient {
	return r.input
}

// Outputs returns the declared yields. The result is deterministic and may be
// empty for recipes that only consume.
func (r *Recipe) Outputs() []Output {
	return slices.Clone(r.outputs)
}

// IsSink reports whether this is the built-in fallback recipe.
func (r *Recipe) IsSink() bool {
	return r.sink
}

// Matches reports whether s satisfies the recipe input.
func (r *Recipe) Matches(s item.Stack) bool {
	return r.input.Test(s)
}

// Duration returns the step count for input, never less than one.
func (r *Recipe) Duration(input item.Stack) int {
	if r.duration == nil {
		return defaults.RecipeDuration
	}
	return max(1, r.duration(input))
}

// DisplayName renders the recipe path for listings.
func (r *Recipe) DisplayName() string {
	return item.ID(r.id).DisplayName()
}

// Poll materializes the outputs for one completion, rolling each chance yield
// against rng. Passing the same seeded source reproduces the same result.
func (r *Recipe) Poll(rng *rand.Rand) []item.Stack {
	stacks := make([]item.Stack, 0, len(r.outputs))
	for _, o := range r.outputs {
		if p := o.probability(); p < 1 && (rng == nil || rng.Float64() >= p) {
			continue
		}
		stacks = append(stacks, item.NewStack(o.Item, o.Count))
	}
	return stacks
}

// NewSink returns the fallback recipe: it accepts any non-empty input, takes
// duration steps and yields nothing. It is never registered; machines use it
// when the registry has no match so that unknown items cannot jam them.
func NewSink(duration int) *Recipe {
	if duration <= 0 {
		duration = defaults.SinkDuration
	}
	return &Recipe{
		id:       ID(defaults.SinkRecipeID),
		group:    defaults.RecipeGroup,
		input:    item.Any(),
		duration: func(item.Stack) int { return duration },
		sink:     true,
	}
}

// Summary is the serializable view of a recipe.
type Summary struct {
	ID       ID       `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Group    string   `json:"group,omitempty" yaml:"group,omitempty"`
	Input    string   `json:"input" yaml:"input"`
	Matches  []string `json:"matches,omitempty" yaml:"matches,omitempty"`
	Duration int      `json:"duration" yaml:"duration"`
	Outputs  []Output `json:"outputs" yaml:"outputs"`
}

// Summarize returns the serializable view of r. Duration is reported for the
// empty sentinel input.
func (r *Recipe) Summarize() Summary {
	s := Summary{
		ID:       r.id,
		Name:     r.DisplayName(),
		Group:    r.group,
		Input:    r.input.String(),
		Duration: r.Duration(item.Empty),
		Outputs:  r.Outputs(),
	}
	if s.Outputs == nil {
		s.Outputs = []Output{}
	}
	for _, id := range r.input.Alternatives() {
		s.Matches = append(s.Matches, string(id))
	}
	return s
}
