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

package charge

import (
	"math"
	"sync"
)

// Grid is a shared in-process distribution network. Generators feed it with
// Generate; machines pull from it with Draw. Concurrent draws are arbitrated
// by a mutex so that the total handed out never exceeds what is stored.
type Grid struct {
	mu       sync.Mutex
	stored   float64
	capacity float64
	offline  bool
}

// NewGrid returns an empty, online grid storing at most capacity.
func NewGrid(capacity float64) *Grid {
	return &Grid{capacity: math.Max(0, capacity)}
}

// Generate adds up to amount of charge and returns what was stored.
func (g *Grid) Generate(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	accepted := math.Min(amount, g.capacity-g.stored)
	g.stored += accepted
	return accepted
}

// Draw implements Provider.
func (g *Grid) Draw(limit float64) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.offline {
		return 0, ErrUnavailable
	}
	if limit <= 0 {
		return 0, nil
	}
	taken := math.Min(limit, g.stored)
	g.stored -= taken
	return taken, nil
}

// SetOnline connects or disconnects the grid.
func (g *Grid) SetOnline(online bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.offline = !online
}

// Stored returns the charge currently held.
func (g *Grid) Stored() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stored
}

// Unlimited offers whatever is asked.
type Unlimited struct{}

// Draw implements Provider.
func (Unlimited) Draw(limit float64) (float64, error) {
	return math.Max(0, limit), nil
}

// PerTick offers at most its value on every draw.
type PerTick float64

// Draw implements Provider.
func (p PerTick) Draw(limit float64) (float64, error) {
	return math.Max(0, math.Min(limit, float64(p))), nil
}

// Offline is a provider that is never reachable.
type Offline struct{}

// Draw implements Provider.
func (Offline) Draw(float64) (float64, error) {
	return 0, ErrUnavailable
}
