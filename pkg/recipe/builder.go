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
	"strings"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
)

// Result reports the outcome of a single registration.
type Result struct {
	Recipe *Recipe
	Err    error
}

// OK reports whether the recipe was registered.
func (r Result) OK() bool {
	return r.Err == nil && r.Recipe != nil
}

// Builder assembles and validates one recipe before handing it to its registry.
// Setters may be chained; nothing is registered until Register is called.
type Builder struct {
	reg       *Registry
	input     item.Ingredient
	name      string
	group     string
	outputs   []Output
	noOutput  bool
	duration  DurationFunc
	setupErrs []string
}

// Define starts a recipe accepting input.
func (r *Registry) Define(input item.Ingredient) *Builder {
	return &Builder{reg: r, input: input}
}

// DefineTag starts a recipe accepting any item in tag, resolved through the
// registry's tag source.
func (r *Registry) DefineTag(tag string) *Builder {
	return r.Define(item.Tagged(r.tags, tag))
}

// Name sets an explicit recipe name. A bare path is placed in the registry namespace.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Group sets the export group.
func (b *Builder) Group(group string) *Builder {
	b.group = group
	return b
}

// Output declares a guaranteed yield.
func (b *Builder) Output(id item.ID, count int) *Builder {
	return b.OutputChance(id, count, 1)
}

// OutputChance declares a yield produced with the given probability.
func (b *Builder) OutputChance(id item.ID, count int, chance float64) *Builder {
	b.outputs = append(b.outputs, Output{Item: id, Count: count, Chance: chance})
	return b
}

// NoOutput declares that the recipe consumes its input and yields nothing.
func (b *Builder) NoOutput() *Builder {
	b.noOutput = true
	return b
}

// Duration sets a fixed step count.
func (b *Builder) Duration(steps int) *Builder {
	return b.DurationFunc(func(item.Stack) int { return steps })
}

// DurationFunc sets an input-dependent step count.
func (b *Builder) DurationFunc(fn DurationFunc) *Builder {
	if fn == nil {
		b.setupErrs = append(b.setupErrs, "duration function is nil")
	}
	b.duration = fn
	return b
}

// Register validates the recipe and appends it to the registry. Failures are
// logged and returned in the Result; the registry is left untouched.
func (b *Builder) Register() Result {
	rec, base, derived, err := b.build()
	if err == nil {
		err = b.reg.add(rec, base, derived)
	}
	if err != nil {
		registrationsTotal.WithLabelValues("rejected").Inc()
		slog.Warn("failed to register recipe",
			"recipe", b.label(),
			"input", b.input.String(),
			"error", err)
		return Result{Err: err}
	}
	registrationsTotal.WithLabelValues("registered").Inc()
	slog.Debug("registered recipe", "recipe", rec.ID(), "input", rec.Input().String())
	return Result{Recipe: rec}
}

func (b *Builder) label() string {
	if b.name != "" {
		return b.name
	}
	if len(b.outputs) > 0 {
		return string(b.outputs[0].Item)
	}
	return "<unnamed>"
}

func (b *Builder) invalid(msg string) error {
	return errors.NewWithContext(errors.ErrCodeInvalidRecipe, msg, map[string]any{
		"recipe": b.label(),
	})
}

func (b *Builder) build() (*Recipe, string, bool, error) {
	if len(b.setupErrs) > 0 {
		return nil, "", false, b.invalid(b.setupErrs[0])
	}
	if !b.input.IsDefined() {
		return nil, "", false, b.invalid("input is not defined")
	}

	switch {
	case len(b.outputs) == 0 && !b.noOutput:
		return nil, "", false, b.invalid("no outputs declared; use NoOutput for consuming recipes")
	case len(b.outputs) > 0 && b.noOutput:
		return nil, "", false, b.invalid("outputs declared on a NoOutput recipe")
	}
	for _, o := range b.outputs {
		if _, err := item.ParseID(string(o.Item)); err != nil {
			return nil, "", false, b.invalid(fmt.Sprintf("invalid output item: %v", err))
		}
		if o.Count <= 0 {
			return nil, "", false, b.invalid(fmt.Sprintf("output %s has non-positive count %d", o.Item, o.Count))
		}
		if o.Chance < 0 || o.Chance > 1 {
			return nil, "", false, b.invalid(fmt.Sprintf("output %s has chance %v outside [0,1]", o.Item, o.Chance))
		}
	}

	base, derived := b.name, false
	if base == "" {
		if len(b.outputs) == 0 {
			return nil, "", false, b.invalid("recipe without outputs needs an explicit name")
		}
		base, derived = b.reg.namespace+":"+b.outputs[0].Item.Path(), true
	} else if id, err := b.qualify(base); err != nil {
		return nil, "", false, b.invalid(fmt.Sprintf("invalid name: %v", err))
	} else {
		base = id
	}

	fn := b.duration
	if fn == nil {
		fn = func(item.Stack) int { return defaults.RecipeDuration }
	}
	steps, err := probe(fn)
	if err != nil {
		return nil, "", false, b.invalid(err.Error())
	}
	if steps <= 0 {
		return nil, "", false, b.invalid(fmt.Sprintf("duration must be positive, got %d", steps))
	}

	group := b.group
	if group == "" {
		group = b.reg.group
	}
	outputs := make([]Output, len(b.outputs))
	for i, o := range b.outputs {
		o.Item, _ = item.ParseID(string(o.Item))
		outputs[i] = o
	}
	return &Recipe{
		group:    group,
		input:    b.input,
		outputs:  outputs,
		duration: fn,
	}, base, derived, nil
}

func (b *Builder) qualify(name string) (string, error) {
	if !strings.Contains(name, ":") {
		name = b.reg.namespace + ":" + name
	}
	id, err := item.ParseID(name)
	return string(id), err
}

// probe evaluates fn against the empty sentinel input, recovering panics from
// user-supplied functions.
func probe(fn DurationFunc) (steps int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("duration function panicked: %v", r)
		}
	}()
	return fn(item.Empty), nil
}
