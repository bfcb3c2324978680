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
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millwork-dev/millwork/pkg/charge"
	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/inventory"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/recipe"
)

const (
	cobble = item.ID("minecraft:cobblestone")
	gravel = item.ID("minecraft:gravel")
	flint  = item.ID("minecraft:flint")
	dirt   = item.ID("minecraft:dirt")
	ore    = item.ID("minecraft:iron_ore")
)

type providerFunc func(limit float64) (float64, error)

func (f providerFunc) Draw(limit float64) (float64, error) {
	return f(limit)
}

func gravelRegistry(t *testing.T, duration int) *recipe.Registry {
	t.Helper()
	reg := recipe.NewRegistry()
	res := reg.Define(item.Of(cobble)).Output(gravel, 1).Duration(duration).Register()
	require.True(t, res.OK(), "register: %v", res.Err)
	return reg
}

func newMachine(t *testing.T, reg *recipe.Registry, opts ...Option) *Machine {
	t.Helper()
	m, err := New(reg, append([]Option{WithSeed(42), WithID("test")}, opts...)...)
	require.NoError(t, err)
	return m
}

func TestCompletesAfterDurationTicks(t *testing.T) {
	m := newMachine(t, gravelRegistry(t, 10), WithProvider(charge.Unlimited{}))
	require.True(t, m.Insert(0, item.NewStack(cobble, 2)).IsEmpty())

	for i := 1; i < 10; i++ {
		require.Equal(t, StateRunning, m.Tick(), "tick %d", i)
		assert.Equal(t, i, m.Progress())
	}
	assert.Equal(t, StateCompleted, m.Tick())
	assert.Equal(t, 0, m.Progress())
	assert.Equal(t, item.NewStack(cobble, 1), m.Stack(0))
	assert.Equal(t, item.NewStack(gravel, 1), m.Stack(defaults.SlotsPerSide))

	st := m.Status()
	assert.Equal(t, uint64(1), st.Completions)
	assert.Equal(t, defaults.ChargeCapacity-defaults.StepCost, st.Charge)
}

func TestStalledWithoutCharge(t *testing.T) {
	for name, p := range map[string]charge.Provider{
		"zero supply": charge.PerTick(0),
		"offline":     charge.Offline{},
		"nil":         nil,
	} {
		t.Run(name, func(t *testing.T) {
			m := newMachine(t, gravelRegistry(t, 10), WithProvider(p))
			require.True(t, m.Insert(0, item.NewStack(cobble, 3)).IsEmpty())
			before := m.Status()

			for range 500 {
				require.Equal(t, StateStalled, m.Tick())
			}
			after := m.Status()
			assert.Equal(t, before.Input, after.Input)
			assert.Equal(t, before.Output, after.Output)
			assert.Equal(t, 0, after.Progress)
			assert.Zero(t, after.Charge)
		})
	}
}

func TestFullBufferPaysFiftySteps(t *testing.T) {
	m := newMachine(t, gravelRegistry(t, 1000))
	require.NoError(t, m.Restore(&Snapshot{
		Charge: defaults.ChargeCapacity,
		Slots:  []SlotStack{{Slot: 0, Stack: item.NewStack(cobble, 1)}},
	}))
	assert.Equal(t, 50, m.Config().StepsPerBuffer())

	for i := range 50 {
		require.Equal(t, StateRunning, m.Tick(), "step %d", i+1)
	}
	assert.Equal(t, StateStalled, m.Tick())
	assert.Equal(t, 50, m.Progress())
	assert.Zero(t, m.Charge())
}

func TestIdle(t *testing.T) {
	m := newMachine(t, gravelRegistry(t, 10), WithProvider(charge.Unlimited{}))
	assert.Equal(t, StateIdle, m.Tick())
	assert.Equal(t, defaults.ChargeCapacity, m.Charge(), "top-up runs even when idle")
}

func TestOutputBlocked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Slots = 1
	m := newMachine(t, gravelRegistry(t, 2), WithConfig(cfg))
	require.NoError(t, m.Restore(&Snapshot{
		Charge: 2 * cfg.StepCost,
		Slots: []SlotStack{
			{Slot: 0, Stack: item.NewStack(cobble, 3)},
			{Slot: 1, Stack: item.NewStack(dirt, 64)},
		},
	}))

	assert.Equal(t, StateRunning, m.Tick())
	for range 20 {
		require.Equal(t, StateOutputBlocked, m.Tick())
		assert.Equal(t, 2, m.Progress())
		assert.Equal(t, item.NewStack(cobble, 3), m.Stack(0))
		assert.Equal(t, item.NewStack(dirt, 64), m.Stack(1))
	}
	assert.Zero(t, m.Charge(), "held batches do not pay again")

	assert.Equal(t, item.NewStack(dirt, 64), m.Extract(1, 64, false))
	assert.Equal(t, StateCompleted, m.Tick())
	assert.Equal(t, item.NewStack(cobble, 2), m.Stack(0))
	assert.Equal(t, item.NewStack(gravel, 1), m.Stack(1))
	assert.Equal(t, 0, m.Progress())
}

func TestPartialOutputDoesNotCommit(t *testing.T) {
	reg := recipe.NewRegistry()
	require.True(t, reg.Define(item.Of(cobble)).
		Output(gravel, 1).
		Output(flint, 1).
		Duration(1).
		Register().OK())

	cfg := DefaultConfig()
	cfg.Slots = 1
	m := newMachine(t, reg, WithConfig(cfg), WithProvider(charge.Unlimited{}))
	require.NoError(t, m.Restore(&Snapshot{
		Slots: []SlotStack{
			{Slot: 0, Stack: item.NewStack(cobble, 1)},
			{Slot: 1, Stack: item.NewStack(gravel, 10)},
		},
	}))

	// gravel would merge but flint has no room
	assert.Equal(t, StateOutputBlocked, m.Tick())
	assert.Equal(t, item.NewStack(gravel, 10), m.Stack(1))
	assert.Equal(t, item.NewStack(cobble, 1), m.Stack(0))
}

func TestSinkConsumesUnknownInput(t *testing.T) {
	var events []Event
	m := newMachine(t, gravelRegistry(t, 10),
		WithProvider(charge.Unlimited{}),
		WithNotifier(NotifierFunc(func(e Event) { events = append(events, e) })))
	require.NoError(t, m.Restore(&Snapshot{
		Slots: []SlotStack{{Slot: 4, Stack: item.NewStack(dirt, 2)}},
	}))

	var state State
	ticks := 0
	for state != StateCompleted && ticks < 1000 {
		state = m.Tick()
		ticks++
		if state == StateRunning {
			assert.True(t, m.Status().Sink)
		}
	}
	require.Equal(t, StateCompleted, state)
	assert.Equal(t, defaults.SinkDuration, ticks)
	assert.Equal(t, item.NewStack(dirt, 1), m.Stack(4))
	for i := range defaults.SlotsPerSide {
		assert.True(t, m.Stack(defaults.SlotsPerSide+i).IsEmpty())
	}

	require.Len(t, events, 1)
	assert.True(t, events[0].Sink)
	assert.Equal(t, recipe.ID(defaults.SinkRecipeID), events[0].Recipe)
	assert.Empty(t, events[0].Outputs)
	assert.Equal(t, item.NewStack(dirt, 1), events[0].Consumed)
}

func TestRecipeRevalidatedBeforeCompletion(t *testing.T) {
	tags := item.NewCatalog()
	tags.Tag("ores", ore)
	reg := recipe.NewRegistry(recipe.WithTags(tags))
	require.True(t, reg.DefineTag("ores").Output(gravel, 1).Duration(5).Register().OK())

	m := newMachine(t, reg, WithProvider(charge.Unlimited{}))
	require.True(t, m.Insert(0, item.NewStack(ore, 1)).IsEmpty())
	for range 4 {
		require.Equal(t, StateRunning, m.Tick())
	}
	assert.Equal(t, 4, m.Progress())

	tags.Untag("ores", ore)
	assert.Equal(t, StateRunning, m.Tick())
	st := m.Status()
	assert.True(t, st.Sink)
	assert.Equal(t, 1, st.Progress, "a different recipe restarts the batch")
	assert.Equal(t, defaults.SinkDuration, st.Duration)
	assert.Equal(t, item.NewStack(ore, 1), m.Stack(0))
}

func TestReResolvingSameRecipeKeepsProgress(t *testing.T) {
	m := newMachine(t, gravelRegistry(t, 10), WithProvider(charge.Unlimited{}))
	require.True(t, m.Insert(0, item.NewStack(cobble, 1)).IsEmpty())
	for range 3 {
		m.Tick()
	}
	// any slot change invalidates the active recipe
	require.True(t, m.Insert(1, item.NewStack(cobble, 1)).IsEmpty())
	assert.Equal(t, StateRunning, m.Tick())
	assert.Equal(t, 4, m.Progress())
}

func TestFirstOccupiedSlotIsActive(t *testing.T) {
	reg := gravelRegistry(t, 3)
	require.True(t, reg.Define(item.Of(flint)).Output(gravel, 2).Duration(3).Register().OK())

	m := newMachine(t, reg, WithProvider(charge.Unlimited{}))
	require.True(t, m.Insert(5, item.NewStack(cobble, 1)).IsEmpty())
	require.True(t, m.Insert(2, item.NewStack(flint, 1)).IsEmpty())

	m.Tick()
	st := m.Status()
	assert.Equal(t, 2, st.ActiveSlot)
	assert.Equal(t, recipe.ID("millwork:gravel_1"), st.Recipe)
}

func TestSlotContract(t *testing.T) {
	m := newMachine(t, gravelRegistry(t, 10))
	n := defaults.SlotsPerSide

	t.Run("can insert", func(t *testing.T) {
		assert.True(t, m.CanInsert(0, item.NewStack(cobble, 1)))
		assert.True(t, m.CanInsert(n-1, item.NewStack(cobble, 1)))
		assert.False(t, m.CanInsert(n, item.NewStack(cobble, 1)), "output range")
		assert.False(t, m.CanInsert(-1, item.NewStack(cobble, 1)))
		assert.False(t, m.CanInsert(0, item.NewStack(dirt, 1)), "sink fallback does not admit")
		assert.False(t, m.CanInsert(0, item.Empty))
	})

	t.Run("insert", func(t *testing.T) {
		assert.Equal(t, item.NewStack(dirt, 5), m.Insert(0, item.NewStack(dirt, 5)))
		assert.Equal(t, item.NewStack(cobble, 6), m.Insert(0, item.NewStack(cobble, 70)))
		assert.Equal(t, item.NewStack(cobble, 64), m.Stack(0))
		assert.True(t, m.InsertAny(item.NewStack(cobble, 70)).IsEmpty())
		assert.Equal(t, item.NewStack(cobble, 64), m.Stack(1))
		assert.Equal(t, item.NewStack(cobble, 6), m.Stack(2))
	})

	t.Run("extract from input is rejected", func(t *testing.T) {
		for _, amount := range []int{1, 64, 1000} {
			assert.True(t, m.Extract(0, amount, false).IsEmpty())
			assert.True(t, m.Extract(n-1, amount, true).IsEmpty())
		}
		assert.Equal(t, item.NewStack(cobble, 64), m.Stack(0))
		assert.True(t, m.Extract(2*n, 1, false).IsEmpty())
	})

	t.Run("extract from output", func(t *testing.T) {
		require.NoError(t, m.Restore(&Snapshot{
			Slots: []SlotStack{{Slot: n, Stack: item.NewStack(gravel, 10)}},
		}))
		assert.Equal(t, item.NewStack(gravel, 4), m.Extract(n, 4, true))
		assert.Equal(t, item.NewStack(gravel, 10), m.Stack(n))
		assert.Equal(t, item.NewStack(gravel, 10), m.Extract(n, 64, false))
		assert.True(t, m.Stack(n).IsEmpty())
	})
}

func TestChargeStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	supply := providerFunc(func(limit float64) (float64, error) {
		if rng.IntN(5) == 0 {
			return 0, charge.ErrUnavailable
		}
		return min(limit, rng.Float64()*400), nil
	})

	m := newMachine(t, gravelRegistry(t, 7), WithProvider(supply))
	n := defaults.SlotsPerSide
	prev := 0
	for i := range 2000 {
		if i%50 == 0 {
			m.InsertAny(item.NewStack(cobble, 16))
		}
		if i%30 == 0 {
			m.Extract(n+rng.IntN(n), 64, false)
		}
		state := m.Tick()

		c := m.Charge()
		require.GreaterOrEqual(t, c, 0.0)
		require.LessOrEqual(t, c, defaults.ChargeCapacity)

		p := m.Progress()
		if state == StateCompleted {
			require.Equal(t, 0, p)
		} else if state != StateIdle {
			require.GreaterOrEqual(t, p, prev)
		}
		prev = p
	}
}

func TestCompletionPitch(t *testing.T) {
	var pitches []float64
	m := newMachine(t, gravelRegistry(t, 1),
		WithProvider(charge.Unlimited{}),
		WithNotifier(NotifierFunc(func(e Event) { pitches = append(pitches, e.Pitch) })))
	m.InsertAny(item.NewStack(cobble, 20))
	for range 20 {
		require.Equal(t, StateCompleted, m.Tick())
	}
	require.Len(t, pitches, 20)
	for _, p := range pitches {
		assert.GreaterOrEqual(t, p, 0.7)
		assert.Less(t, p, 0.95)
	}
}

func TestSeedReproducesOutputs(t *testing.T) {
	reg := recipe.NewRegistry()
	require.True(t, reg.Define(item.Of(cobble)).
		Output(gravel, 1).
		OutputChance(flint, 1, 0.3).
		Duration(1).
		Register().OK())

	run := func() []item.Stack {
		m := newMachine(t, reg, WithProvider(charge.Unlimited{}), WithSeed(99))
		m.InsertAny(item.NewStack(cobble, 40))
		for range 40 {
			m.Tick()
		}
		return m.Status().Output
	}
	assert.Equal(t, run(), run())
}

func TestSnapshotRestore(t *testing.T) {
	src := newMachine(t, gravelRegistry(t, 10), WithProvider(charge.PerTick(500)))
	require.True(t, src.Insert(3, item.NewStack(cobble, 5)).IsEmpty())
	for range 6 {
		src.Tick()
	}
	snap := src.Snapshot("test")
	assert.Equal(t, "test", snap.ID)
	assert.Equal(t, 6, snap.Progress)
	assert.Equal(t, recipe.ID("millwork:gravel"), snap.Recipe)
	assert.Equal(t, src.Charge(), snap.Charge)
	assert.Equal(t, []SlotStack{{Slot: 3, Stack: item.NewStack(cobble, 5)}}, snap.Slots)

	t.Run("reset", func(t *testing.T) {
		dst, err := New(gravelRegistry(t, 10), WithSeed(7))
		require.NoError(t, err)
		require.NoError(t, dst.Restore(snap))
		assert.Equal(t, "test", dst.ID(), "unnamed machines take the snapshot ID")
		assert.Equal(t, 0, dst.Progress())
		assert.Equal(t, snap.Charge, dst.Charge())
		assert.Equal(t, item.NewStack(cobble, 5), dst.Stack(3))
		assert.Equal(t, StateIdle, dst.State())
	})

	t.Run("explicit id wins", func(t *testing.T) {
		dst := newMachine(t, gravelRegistry(t, 10), WithID("explicit"))
		require.NoError(t, dst.Restore(snap))
		assert.Equal(t, "explicit", dst.ID())
		assert.Equal(t, "explicit", dst.Snapshot("").ID)
		assert.Equal(t, item.NewStack(cobble, 5), dst.Stack(3))
	})

	t.Run("keep", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Progress = ProgressKeep
		dst := newMachine(t, gravelRegistry(t, 10), WithConfig(cfg), WithProvider(charge.Unlimited{}))
		require.NoError(t, dst.Restore(snap))
		assert.Equal(t, 6, dst.Progress())
		for range 3 {
			require.Equal(t, StateRunning, dst.Tick())
		}
		assert.Equal(t, StateCompleted, dst.Tick())
	})

	t.Run("keep clamps to new duration", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Progress = ProgressKeep
		dst := newMachine(t, gravelRegistry(t, 4), WithConfig(cfg), WithProvider(charge.Unlimited{}))
		require.NoError(t, dst.Restore(snap))
		assert.Equal(t, StateCompleted, dst.Tick())
	})

	t.Run("charge is clamped", func(t *testing.T) {
		dst := newMachine(t, gravelRegistry(t, 10))
		require.NoError(t, dst.Restore(&Snapshot{Charge: 1e9}))
		assert.Equal(t, defaults.ChargeCapacity, dst.Charge())
		require.NoError(t, dst.Restore(&Snapshot{Charge: -5}))
		assert.Zero(t, dst.Charge())
	})
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"nil", nil},
		{"slot out of range", &Snapshot{Slots: []SlotStack{{Slot: 18, Stack: item.NewStack(cobble, 1)}}}},
		{"over stack limit", &Snapshot{Slots: []SlotStack{{Slot: 0, Stack: item.NewStack(cobble, 65)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, gravelRegistry(t, 10))
			err := m.Restore(tt.snap)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
		})
	}

	m := newMachine(t, gravelRegistry(t, 10))
	snap := m.Snapshot("v")
	snap.Kind = "RecipeCatalog"
	assert.Error(t, m.Restore(snap))
}

func TestCommitFallsBackToMatchingSlot(t *testing.T) {
	reg := gravelRegistry(t, 1)
	r, _ := reg.Resolve(item.NewStack(cobble, 1))

	in := inventory.NewSlots(3)
	out := inventory.NewSlots(1)
	in.SetStack(0, item.NewStack(dirt, 4))
	in.SetStack(2, item.NewStack(cobble, 3))

	res, ok := Commit(Batch{Recipe: r, Slot: 0, Input: in, Output: out, RNG: rand.New(rand.NewPCG(1, 2))})
	require.True(t, ok)
	assert.Equal(t, item.NewStack(cobble, 1), res.Consumed)
	assert.Equal(t, item.NewStack(dirt, 4), in.Stack(0))
	assert.Equal(t, item.NewStack(cobble, 2), in.Stack(2))
	assert.Equal(t, item.NewStack(gravel, 1), out.Stack(0))

	in.SetStack(2, item.Empty)
	_, ok = Commit(Batch{Recipe: r, Slot: 0, Input: in, Output: out, RNG: rand.New(rand.NewPCG(1, 2))})
	assert.False(t, ok)
	assert.Equal(t, item.NewStack(gravel, 1), out.Stack(0), "nothing committed without input")
}

func TestPolicyFuncs(t *testing.T) {
	reg := gravelRegistry(t, 10)
	fixed, _ := reg.Resolve(item.NewStack(cobble, 1))

	var steps int
	m := newMachine(t, reg, WithPolicy(PolicyFuncs{
		ResolveFunc: func(s item.Stack) (*recipe.Recipe, bool) {
			return fixed, s.Item == cobble
		},
		DurationFunc: func(*recipe.Recipe, item.Stack) int { return 2 },
		StepFunc: func(*charge.Pool) bool {
			steps++
			return true
		},
	}))
	require.True(t, m.Insert(0, item.NewStack(cobble, 1)).IsEmpty())

	assert.Equal(t, StateRunning, m.Tick())
	assert.Equal(t, StateCompleted, m.Tick())
	assert.Equal(t, 2, steps)
	assert.True(t, m.Stack(0).IsEmpty())
	assert.Equal(t, item.NewStack(gravel, 1), m.Stack(defaults.SlotsPerSide))
	assert.Equal(t, StateIdle, m.Tick())
}

func TestPanickingDurationFallsBackToDefault(t *testing.T) {
	var table map[item.ID]int
	reg := recipe.NewRegistry()
	res := reg.Define(item.Of(cobble)).Output(gravel, 1).
		DurationFunc(func(s item.Stack) int {
			if s.IsEmpty() {
				return 5
			}
			table[s.Item]++
			return table[s.Item]
		}).Register()
	require.True(t, res.OK(), "register: %v", res.Err)

	m := newMachine(t, reg, WithProvider(charge.Unlimited{}))
	require.True(t, m.Insert(0, item.NewStack(cobble, 2)).IsEmpty())

	assert.NotPanics(t, func() { m.Tick() })
	assert.Equal(t, StateRunning, m.Tick())
	assert.Equal(t, 2, m.Progress())
	assert.Equal(t, StateRunning, m.Status().State)
}

func TestTickReleasesLockOnPolicyPanic(t *testing.T) {
	reg := gravelRegistry(t, 1)
	fixed, _ := reg.Resolve(item.NewStack(cobble, 1))
	m := newMachine(t, reg, WithPolicy(PolicyFuncs{
		ResolveFunc: func(item.Stack) (*recipe.Recipe, bool) { return fixed, true },
		CompleteFunc: func(Batch) (Result, bool) {
			panic("commit failed")
		},
	}))
	require.True(t, m.Insert(0, item.NewStack(cobble, 1)).IsEmpty())

	assert.Panics(t, func() { m.Tick() })
	// the machine stays usable after a recovered panic
	assert.Equal(t, item.NewStack(cobble, 1), m.Stack(0))
	assert.Equal(t, uint64(0), m.Status().Completions)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero slots", func(c *Config) { c.Slots = 0 }},
		{"zero stack limit", func(c *Config) { c.StackLimit = 0 }},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"negative step cost", func(c *Config) { c.StepCost = -1 }},
		{"step cost above capacity", func(c *Config) { c.StepCost = c.Capacity + 1 }},
		{"NaN step cost", func(c *Config) { c.StepCost = math.NaN() }},
		{"infinite step cost", func(c *Config) { c.StepCost = math.Inf(1) }},
		{"NaN capacity", func(c *Config) { c.Capacity = math.NaN() }},
		{"infinite capacity", func(c *Config) { c.Capacity = math.Inf(1) }},
		{"zero sink duration", func(c *Config) { c.SinkDuration = 0 }},
		{"unknown progress policy", func(c *Config) { c.Progress = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(recipe.NewRegistry(), WithConfig(cfg))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
		})
	}
}

func TestParseProgressPolicy(t *testing.T) {
	p, err := ParseProgressPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ProgressReset, p)

	p, err = ParseProgressPolicy("keep")
	require.NoError(t, err)
	assert.Equal(t, ProgressKeep, p)

	_, err = ParseProgressPolicy("maybe")
	assert.Error(t, err)
}

func TestGeneratedID(t *testing.T) {
	m, err := New(recipe.NewRegistry())
	require.NoError(t, err)
	assert.Len(t, m.ID(), 36)
}
