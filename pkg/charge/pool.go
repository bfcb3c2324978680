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
	"errors"
	"log/slog"
	"math"
)

// ErrUnavailable is returned by a Provider that cannot be reached this tick.
var ErrUnavailable = errors.New("charge network unavailable")

// Provider is the external distribution network a pool pulls from.
// Draw removes up to limit units and returns the amount actually handed over.
// It must not block.
type Provider interface {
	Draw(limit float64) (float64, error)
}

// Pool is a bounded charge buffer. Its balance stays within [0, capacity]:
// it only grows through TopUp/Offer (bounded by free space) and only shrinks
// through whole-step withdrawals.
type Pool struct {
	balance  float64
	capacity float64
}

// NewPool returns an empty pool holding at most capacity.
func NewPool(capacity float64) *Pool {
	if math.IsNaN(capacity) || math.IsInf(capacity, 0) {
		capacity = 0
	}
	return &Pool{capacity: math.Max(0, capacity)}
}

// Balance returns the stored charge.
func (p *Pool) Balance() float64 {
	return p.balance
}

// Capacity returns the maximum storable charge.
func (p *Pool) Capacity() float64 {
	return p.capacity
}

// Space returns how much more charge the pool accepts.
func (p *Pool) Space() float64 {
	return math.Max(0, p.capacity-p.balance)
}

// TopUp pulls up to Space from src. An unreachable or nil provider counts as
// a zero offer.
func (p *Pool) TopUp(src Provider) float64 {
	want := p.Space()
	if src == nil || want <= 0 {
		return 0
	}
	got, err := src.Draw(want)
	if err != nil {
		slog.Debug("charge provider unavailable, skipping top-up", "error", err)
		return 0
	}
	return p.Offer(got)
}

// Offer adds up to amount and returns what was accepted.
func (p *Pool) Offer(amount float64) float64 {
	if amount <= 0 || math.IsNaN(amount) {
		return 0
	}
	accepted := math.Min(amount, p.Space())
	p.balance += accepted
	return accepted
}

// CanAfford reports whether cost could be withdrawn now. Negative and NaN
// costs are never affordable.
func (p *Pool) CanAfford(cost float64) bool {
	return cost >= 0 && p.balance >= cost
}

// Withdraw removes cost if the balance covers it.
func (p *Pool) Withdraw(cost float64) bool {
	if !p.CanAfford(cost) {
		return false
	}
	p.balance -= cost
	return true
}

// Restore sets the balance from persisted state, clamped to [0, capacity].
func (p *Pool) Restore(balance float64) {
	if math.IsNaN(balance) {
		balance = 0
	}
	p.balance = math.Min(math.Max(0, balance), p.capacity)
}
