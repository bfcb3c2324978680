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

package world

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/millwork-dev/millwork/pkg/charge"
	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/machine"
)

// Option configures a World.
type Option func(*World)

// WithClock replaces the real clock, typically with a fake in tests.
func WithClock(c clock.WithTicker) Option {
	return func(w *World) {
		w.clock = c
	}
}

// WithSupply sets the charge generated into the grid each step.
func WithSupply(perTick float64) Option {
	return func(w *World) {
		w.supply = perTick
	}
}

// WithGrid replaces the default grid.
func WithGrid(g *charge.Grid) Option {
	return func(w *World) {
		w.grid = g
	}
}

// WithParallelism bounds how many machines tick concurrently.
func WithParallelism(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.parallelism = n
		}
	}
}

// World owns machines and the grid that powers them.
type World struct {
	mu       sync.RWMutex
	machines map[string]*machine.Machine
	order    []string

	grid        *charge.Grid
	clock       clock.WithTicker
	supply      float64
	parallelism int
	ticks       uint64
}

// New returns an empty world.
func New(opts ...Option) *World {
	w := &World{
		machines:    make(map[string]*machine.Machine),
		clock:       clock.RealClock{},
		supply:      defaults.GridSupplyPerTick,
		parallelism: defaults.TickParallelism,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.grid == nil {
		w.grid = charge.NewGrid(defaults.GridCapacity)
	}
	return w
}

// Grid returns the shared charge grid.
func (w *World) Grid() *charge.Grid {
	return w.grid
}

// Add connects m to the grid and schedules it. IDs must be unique.
func (w *World) Add(m *machine.Machine) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.machines[m.ID()]; exists {
		return errors.NewWithContext(errors.ErrCodeConflict, "machine already exists",
			map[string]any{"machine": m.ID()})
	}
	m.Connect(w.grid)
	w.machines[m.ID()] = m
	w.order = append(w.order, m.ID())
	slog.Debug("machine added", "machine", m.ID())
	return nil
}

// Remove unschedules the machine. Progress of an in-flight batch is lost.
func (w *World) Remove(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, ok := w.machines[id]
	if !ok {
		return false
	}
	m.Connect(nil)
	delete(w.machines, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// Machine returns the machine with id.
func (w *World) Machine(id string) (*machine.Machine, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	m, ok := w.machines[id]
	return m, ok
}

// Machines returns the machines in the order they were added.
func (w *World) Machines() []*machine.Machine {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*machine.Machine, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.machines[id])
	}
	return out
}

// Ticks returns the number of completed steps.
func (w *World) Ticks() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ticks
}

// Report summarizes one step.
type Report struct {
	Tick      uint64                `json:"tick" yaml:"tick"`
	Generated float64               `json:"generated" yaml:"generated"`
	States    map[machine.State]int `json:"states" yaml:"states"`
}

// Step generates grid supply and ticks every machine once. Machines are
// ticked concurrently; each runs its full tick without interruption.
func (w *World) Step(ctx context.Context) (*Report, error) {
	start := w.clock.Now()
	machines := w.Machines()

	report := &Report{
		Generated: w.grid.Generate(w.supply),
		States:    make(map[machine.State]int, len(machine.States)),
	}

	states := make([]machine.State, len(machines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallelism)
	for i, m := range machines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			states[i] = m.Tick()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, "world step interrupted", err)
	}

	for _, s := range states {
		report.States[s]++
	}
	for _, s := range machine.States {
		worldMachines.WithLabelValues(string(s)).Set(float64(report.States[s]))
	}
	worldGridStored.Set(w.grid.Stored())
	worldStepDuration.Observe(w.clock.Since(start).Seconds())

	w.mu.Lock()
	w.ticks++
	report.Tick = w.ticks
	w.mu.Unlock()
	return report, nil
}

// Run steps the world every interval until ctx is done. A step that overruns
// the interval is logged; the ticker drops the missed ticks.
func (w *World) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaults.TickInterval
	}
	ticker := w.clock.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("world loop started",
		"interval", interval.String(),
		"machines", len(w.Machines()),
		"supply", w.supply)

	for {
		select {
		case <-ctx.Done():
			slog.Info("world loop stopped", "ticks", w.Ticks())
			return nil
		case <-ticker.C():
			start := w.clock.Now()
			if _, err := w.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if elapsed := w.clock.Since(start); elapsed > interval {
				worldOverruns.Inc()
				slog.Warn("world step overran interval", "elapsed", elapsed.String(), "interval", interval.String())
			}
		}
	}
}
