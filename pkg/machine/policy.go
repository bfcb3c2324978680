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

package machine

import (
	"math/rand/v2"

	"github.com/millwork-dev/millwork/pkg/charge"
	"github.com/millwork-dev/millwork/pkg/inventory"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/recipe"
)

// Batch is a finished unit of work handed to Policy.Complete.
type Batch struct {
	Recipe *recipe.Recipe
	Slot   int
	Input  inventory.Inventory
	Output inventory.Inventory
	RNG    *rand.Rand
}

// Policy supplies the four hooks of the tick driver. Machine types differ
// only in their policy; the driver and its ordering are fixed.
type Policy interface {
	// Resolve picks the recipe for the stack in the active input slot.
	Resolve(input item.Stack) (*recipe.Recipe, bool)
	// Duration returns the step count for r processing input.
	Duration(r *recipe.Recipe, input item.Stack) int
	// Step pays for one step of progress from pool.
	Step(pool *charge.Pool) bool
	// Complete attempts to commit b. It must either apply all of its
	// mutations and return true, or apply none and return false.
	Complete(b Batch) (Result, bool)
}

// Result describes a committed batch.
type Result struct {
	Outputs  []item.Stack
	Consumed item.Stack
}

// Processing is the standard policy: registry lookup with a sink fallback,
// recipe durations, a fixed charge cost per step and transactional commits.
type Processing struct {
	Registry *recipe.Registry
	Sink     *recipe.Recipe
	StepCost float64
}

// NewProcessing builds the standard policy from cfg.
func NewProcessing(reg *recipe.Registry, cfg Config) *Processing {
	return &Processing{
		Registry: reg,
		Sink:     recipe.NewSink(cfg.SinkDuration),
		StepCost: cfg.StepCost,
	}
}

// Resolve implements Policy. Unmatched input falls back to the sink so that
// unknown items are consumed instead of jamming the machine.
func (p *Processing) Resolve(input item.Stack) (*recipe.Recipe, bool) {
	if input.IsEmpty() {
		return nil, false
	}
	if p.Registry != nil {
		if r, ok := p.Registry.Resolve(input); ok {
			return r, true
		}
	}
	if p.Sink != nil {
		return p.Sink, true
	}
	return nil, false
}

// Duration implements Policy.
func (p *Processing) Duration(r *recipe.Recipe, input item.Stack) int {
	return r.Duration(input)
}

// Step implements Policy.
func (p *Processing) Step(pool *charge.Pool) bool {
	return pool.Withdraw(p.StepCost)
}

// Complete implements Policy.
func (p *Processing) Complete(b Batch) (Result, bool) {
	return Commit(b)
}

// Commit polls the batch outputs, simulates inserting them into a copy of the
// output inventory and, only if everything fits, inserts them for real and
// removes one matching input unit.
func Commit(b Batch) (Result, bool) {
	outputs := b.Recipe.Poll(b.RNG)
	if !inventory.Fits(b.Output, outputs) {
		return Result{Outputs: outputs}, false
	}
	var consumed item.Stack
	if b.Recipe.Matches(b.Input.Stack(b.Slot)) {
		consumed = inventory.RemoveOne(b.Input, b.Slot)
	} else {
		var ok bool
		if consumed, ok = inventory.RemoveOneMatching(b.Input, b.Recipe.Matches); !ok {
			return Result{Outputs: outputs}, false
		}
	}
	for _, o := range outputs {
		inventory.Add(b.Output, o)
	}
	return Result{Outputs: outputs, Consumed: consumed}, true
}

// PolicyFuncs adapts plain functions to Policy. Nil fields fall back to the
// recipe's own duration, a free step and Commit; a nil ResolveFunc never
// resolves.
type PolicyFuncs struct {
	ResolveFunc  func(input item.Stack) (*recipe.Recipe, bool)
	DurationFunc func(r *recipe.Recipe, input item.Stack) int
	StepFunc     func(pool *charge.Pool) bool
	CompleteFunc func(b Batch) (Result, bool)
}

// Resolve implements Policy.
func (f PolicyFuncs) Resolve(input item.Stack) (*recipe.Recipe, bool) {
	if f.ResolveFunc == nil {
		return nil, false
	}
	return f.ResolveFunc(input)
}

// Duration implements Policy.
func (f PolicyFuncs) Duration(r *recipe.Recipe, input item.Stack) int {
	if f.DurationFunc == nil {
		return r.Duration(input)
	}
	return f.DurationFunc(r, input)
}

// Step implements Policy.
func (f PolicyFuncs) Step(pool *charge.Pool) bool {
	if f.StepFunc == nil {
		return true
	}
	return f.StepFunc(pool)
}

// Complete implements Policy.
func (f PolicyFuncs) Complete(b Batch) (Result, bool) {
	if f.CompleteFunc == nil {
		return Commit(b)
	}
	return f.CompleteFunc(b)
}
