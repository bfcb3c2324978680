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

package inventory

import (
	"fmt"
	"slices"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/item"
)

// Inventory is the slot container contract machines operate on.
// Implementations must tolerate out-of-range slots by returning item.Empty.
type Inventory interface {
	// Size returns the number of slots.
	Size() int
	// Stack returns the stack in slot.
	Stack(slot int) item.Stack
	// SetStack replaces the stack in slot.
	SetStack(slot int, s item.Stack)
}

// Limiter is implemented by inventories that cap per-slot counts.
type Limiter interface {
	Limit() int
}

// Slots is a fixed-size, in-memory Inventory.
type Slots struct {
	stacks   []item.Stack
	limit    int
	onChange func()
}

// Option configures Slots.
type Option func(*Slots)

// WithLimit caps every slot at n items.
func WithLimit(n int) Option {
	return func(s *Slots) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithChangeHook registers fn to run after any slot changes.
func WithChangeHook(fn func()) Option {
	return func(s *Slots) {
		s.onChange = fn
	}
}

// NewSlots returns an empty inventory with size slots.
func NewSlots(size int, opts ...Option) *Slots {
	s := &Slots{
		stacks: make([]item.Stack, size),
		limit:  defaults.MaxStackSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size implements Inventory.
func (s *Slots) Size() int {
	return len(s.stacks)
}

// Limit implements Limiter.
func (s *Slots) Limit() int {
	return s.limit
}

// Stack implements Inventory.
func (s *Slots) Stack(slot int) item.Stack {
	if slot < 0 || slot >= len(s.stacks) {
		return item.Empty
	}
	return s.stacks[slot]
}

// SetStack implements Inventory. Empty stacks are normalized to item.Empty.
func (s *Slots) SetStack(slot int, st item.Stack) {
	if slot < 0 || slot >= len(s.stacks) {
		return
	}
	if st.IsEmpty() {
		st = item.Empty
	}
	if s.stacks[slot] == st {
		return
	}
	s.stacks[slot] = st
	if s.onChange != nil {
		s.onChange()
	}
}

// Contents returns a copy of every slot.
func (s *Slots) Contents() []item.Stack {
	return slices.Clone(s.stacks)
}

// Load replaces every slot with stacks without firing the change hook.
func (s *Slots) Load(stacks []item.Stack) error {
	if len(stacks) > len(s.stacks) {
		return fmt.Errorf("inventory has %d slots, got %d stacks", len(s.stacks), len(stacks))
	}
	for i := range s.stacks {
		s.stacks[i] = item.Empty
		if i < len(stacks) && !stacks[i].IsEmpty() {
			s.stacks[i] = stacks[i]
		}
	}
	return nil
}

// Range is a window of consecutive slots over another inventory.
type Range struct {
	inv   Inventory
	start int
	size  int
}

// NewRange maps slots [start, start+size) of inv to [0, size).
func NewRange(inv Inventory, start, size int) *Range {
	return &Range{inv: inv, start: start, size: size}
}

// Size implements Inventory.
func (r *Range) Size() int {
	return r.size
}

// Limit implements Limiter.
func (r *Range) Limit() int {
	return limitOf(r.inv)
}

// Stack implements Inventory.
func (r *Range) Stack(slot int) item.Stack {
	if slot < 0 || slot >= r.size {
		return item.Empty
	}
	return r.inv.Stack(r.start + slot)
}

// SetStack implements Inventory.
func (r *Range) SetStack(slot int, s item.Stack) {
	if slot < 0 || slot >= r.size {
		return
	}
	r.inv.SetStack(r.start+slot, s)
}

// Copy returns a detached copy of inv for simulating mutations.
func Copy(inv Inventory) *Slots {
	c := NewSlots(inv.Size(), WithLimit(limitOf(inv)))
	for i := range inv.Size() {
		c.stacks[i] = inv.Stack(i)
	}
	return c
}

func limitOf(inv Inventory) int {
	if l, ok := inv.(Limiter); ok && l.Limit() > 0 {
		return l.Limit()
	}
	return defaults.MaxStackSize
}
