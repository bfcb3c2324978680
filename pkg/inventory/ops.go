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
	"github.com/millwork-dev/millwork/pkg/item"
)

// Add inserts s into inv, topping up matching stacks before filling empty
// slots, and returns what did not fit.
func Add(inv Inventory, s item.Stack) item.Stack {
	if s.IsEmpty() {
		return item.Empty
	}
	limit := limitOf(inv)
	remaining := s.Count

	for i := 0; i < inv.Size() && remaining > 0; i++ {
		cur := inv.Stack(i)
		if !cur.Stackable(s) || cur.Count >= limit {
			continue
		}
		moved := min(limit-cur.Count, remaining)
		inv.SetStack(i, cur.WithCount(cur.Count+moved))
		remaining -= moved
	}
	for i := 0; i < inv.Size() && remaining > 0; i++ {
		if !inv.Stack(i).IsEmpty() {
			continue
		}
		moved := min(limit, remaining)
		inv.SetStack(i, s.WithCount(moved))
		remaining -= moved
	}
	return s.WithCount(remaining)
}

// Fits reports whether every stack could be added to inv, simulated on a copy.
func Fits(inv Inventory, stacks []item.Stack) bool {
	sim := Copy(inv)
	for _, s := range stacks {
		if !Add(sim, s).IsEmpty() {
			return false
		}
	}
	return true
}

// RemoveOne removes a single item from slot and returns it.
func RemoveOne(inv Inventory, slot int) item.Stack {
	cur := inv.Stack(slot)
	if cur.IsEmpty() {
		return item.Empty
	}
	inv.SetStack(slot, cur.WithCount(cur.Count-1))
	return cur.WithCount(1)
}

// RemoveOneMatching removes a single item from the first slot whose stack
// satisfies match.
func RemoveOneMatching(inv Inventory, match func(item.Stack) bool) (item.Stack, bool) {
	for i := range inv.Size() {
		if cur := inv.Stack(i); !cur.IsEmpty() && match(cur) {
			return RemoveOne(inv, i), true
		}
	}
	return item.Empty, false
}

// Extract takes up to amount items from slot. With simulate set the
// inventory is left untouched.
func Extract(inv Inventory, slot, amount int, simulate bool) item.Stack {
	cur := inv.Stack(slot)
	if cur.IsEmpty() || amount <= 0 {
		return item.Empty
	}
	taken := min(amount, cur.Count)
	if !simulate {
		inv.SetStack(slot, cur.WithCount(cur.Count-taken))
	}
	return cur.WithCount(taken)
}

// FirstOccupied returns the lowest slot holding a stack.
func FirstOccupied(inv Inventory) (int, bool) {
	for i := range inv.Size() {
		if !inv.Stack(i).IsEmpty() {
			return i, true
		}
	}
	return -1, false
}
