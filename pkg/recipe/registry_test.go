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
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
)

const (
	cobble  = item.ID("minecraft:cobblestone")
	gravel  = item.ID("minecraft:gravel")
	sand    = item.ID("minecraft:sand")
	flint   = item.ID("minecraft:flint")
	ironOre = item.ID("minecraft:iron_ore")
)

type recordingTarget struct {
	added []ID
	fail  map[ID]bool
}

func (t *recordingTarget) Add(r *Recipe) error {
	if t.fail[r.ID()] {
		return fmt.Errorf("rejected %s", r.ID())
	}
	t.added = append(t.added, r.ID())
	return nil
}

func TestResolvePriority(t *testing.T) {
	reg := NewRegistry()
	first := reg.Define(item.Of(cobble)).Output(gravel, 1).Register()
	second := reg.Define(item.Of(cobble, sand)).Output(sand, 1).Register()
	require.True(t, first.OK())
	require.True(t, second.OK())

	for range 10 {
		got, ok := reg.Resolve(item.NewStack(cobble, 3))
		require.True(t, ok)
		assert.Same(t, first.Recipe, got)
	}

	got, ok := reg.Resolve(item.NewStack(sand, 1))
	require.True(t, ok)
	assert.Same(t, second.Recipe, got)
}

func TestResolveMisses(t *testing.T) {
	reg := NewRegistry()
	reg.Define(item.Of(cobble).AtLeast(2)).Output(gravel, 1).Register()

	tests := []struct {
		name  string
		stack item.Stack
	}{
		{"empty", item.Empty},
		{"unknown item", item.NewStack(flint, 5)},
		{"below minimum", item.NewStack(cobble, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := reg.Resolve(tt.stack)
			assert.False(t, ok)
		})
	}
}

func TestRegistrationIsolation(t *testing.T) {
	reg := NewRegistry()

	bad := reg.Define(item.Of(cobble)).Output(gravel, 1).Duration(0).Register()
	require.False(t, bad.OK())
	assert.True(t, errors.HasCode(bad.Err, errors.ErrCodeInvalidRecipe))
	assert.Equal(t, 0, reg.Len())

	good := reg.Define(item.Of(cobble)).Output(sand, 1).Register()
	require.True(t, good.OK())

	got, ok := reg.Resolve(item.NewStack(cobble, 1))
	require.True(t, ok)
	assert.Equal(t, good.Recipe.ID(), got.ID())
}

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Registry) Result
	}{
		{
			name: "no outputs declared",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).Register()
			},
		},
		{
			name: "outputs and no-output both set",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).Output(gravel, 1).NoOutput().Register()
			},
		},
		{
			name: "undefined input",
			build: func(r *Registry) Result {
				return r.Define(item.Ingredient{}).Output(gravel, 1).Register()
			},
		},
		{
			name: "zero output count",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).Output(gravel, 0).Register()
			},
		},
		{
			name: "chance out of range",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).OutputChance(gravel, 1, 1.5).Register()
			},
		},
		{
			name: "invalid output id",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).Output("a:b:c", 1).Register()
			},
		},
		{
			name: "no output without name",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).NoOutput().Register()
			},
		},
		{
			name: "negative duration",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).Output(gravel, 1).Duration(-5).Register()
			},
		},
		{
			name: "nil duration function",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).Output(gravel, 1).DurationFunc(nil).Register()
			},
		},
		{
			name: "panicking duration function",
			build: func(r *Registry) Result {
				return r.Define(item.Of(cobble)).Output(gravel, 1).
					DurationFunc(func(s item.Stack) int { return 100 / s.Count }).
					Register()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			res := tt.build(reg)
			assert.False(t, res.OK())
			assert.Nil(t, res.Recipe)
			assert.Equal(t, errors.ErrCodeInvalidRecipe, errors.CodeOf(res.Err))
			assert.Equal(t, 0, reg.Len())
		})
	}
}

func TestBuilderNaming(t *testing.T) {
	reg := NewRegistry()

	a := reg.Define(item.Of(cobble)).Output(gravel, 1).Register()
	b := reg.Define(item.Of(sand)).Output(gravel, 2).Register()
	c := reg.Define(item.Of(flint)).Name("flint_dust").Output(gravel, 1).Register()
	d := reg.Define(item.Of(ironOre)).Name("custom:void").NoOutput().Register()

	require.True(t, a.OK())
	require.True(t, b.OK())
	require.True(t, c.OK())
	require.True(t, d.OK())

	assert.Equal(t, ID("millwork:gravel"), a.Recipe.ID())
	assert.Equal(t, ID("millwork:gravel_1"), b.Recipe.ID())
	assert.Equal(t, ID("millwork:flint_dust"), c.Recipe.ID())
	assert.Equal(t, ID("custom:void"), d.Recipe.ID())
	assert.Equal(t, "Gravel", a.Recipe.DisplayName())

	dup := reg.Define(item.Of(cobble)).Name("flint_dust").Output(sand, 1).Register()
	assert.True(t, errors.HasCode(dup.Err, errors.ErrCodeConflict))
	assert.Equal(t, 4, reg.Len())

	got, ok := reg.Lookup("millwork:gravel_1")
	require.True(t, ok)
	assert.Same(t, b.Recipe, got)
}

func TestBuilderDefaults(t *testing.T) {
	reg := NewRegistry(WithNamespace("crusher"), WithGroup("crusher:rock"))
	res := reg.Define(item.Of(cobble)).Output(gravel, 1).Register()
	require.True(t, res.OK())

	assert.Equal(t, ID("crusher:gravel"), res.Recipe.ID())
	assert.Equal(t, "crusher:rock", res.Recipe.Group())
	assert.Equal(t, defaults.RecipeDuration, res.Recipe.Duration(item.NewStack(cobble, 1)))
}

func TestDurationFunc(t *testing.T) {
	reg := NewRegistry()
	res := reg.Define(item.Of(cobble)).Output(gravel, 1).
		DurationFunc(func(s item.Stack) int { return 10 + s.Count*5 }).
		Register()
	require.True(t, res.OK())

	assert.Equal(t, 10, res.Recipe.Duration(item.Empty))
	assert.Equal(t, 330, res.Recipe.Duration(item.NewStack(cobble, 64)))
}

func TestPollDeterministic(t *testing.T) {
	reg := NewRegistry()
	res := reg.Define(item.Of(cobble)).
		Output(gravel, 1).
		OutputChance(flint, 1, 0.5).
		Register()
	require.True(t, res.OK())

	run := func(seed uint64) [][]item.Stack {
		rng := rand.New(rand.NewPCG(seed, seed))
		out := make([][]item.Stack, 50)
		for i := range out {
			out[i] = res.Recipe.Poll(rng)
		}
		return out
	}

	a, b := run(7), run(7)
	assert.Equal(t, a, b)

	var withFlint int
	for _, stacks := range a {
		require.NotEmpty(t, stacks)
		assert.Equal(t, item.NewStack(gravel, 1), stacks[0])
		if len(stacks) == 2 {
			withFlint++
		}
	}
	assert.Greater(t, withFlint, 0)
	assert.Less(t, withFlint, 50)
}

func TestSink(t *testing.T) {
	sink := NewSink(0)
	assert.True(t, sink.IsSink())
	assert.Equal(t, ID(defaults.SinkRecipeID), sink.ID())
	assert.Equal(t, defaults.SinkDuration, sink.Duration(item.NewStack(flint, 1)))
	assert.True(t, sink.Matches(item.NewStack(flint, 1)))
	assert.False(t, sink.Matches(item.Empty))
	assert.Empty(t, sink.Poll(rand.New(rand.NewPCG(1, 2))))
	assert.Empty(t, sink.Outputs())

	assert.Equal(t, 7, NewSink(7).Duration(item.Empty))
}

func TestSatisfiable(t *testing.T) {
	tags := item.NewCatalog()
	tags.Tag("ores/iron", ironOre)
	tags.Tag("ores/tin")

	reg := NewRegistry(WithTags(tags))
	iron := reg.DefineTag("ores/iron").Output("millwork:crushed_iron", 2).Register()
	tin := reg.DefineTag("ores/tin").Output("millwork:crushed_tin", 2).Register()
	plain := reg.Define(item.Of(cobble)).Output(gravel, 1).Register()
	require.True(t, iron.OK())
	require.True(t, tin.OK())
	require.True(t, plain.OK())

	ids := func(rs []*Recipe) []ID {
		out := make([]ID, len(rs))
		for i, r := range rs {
			out[i] = r.ID()
		}
		return out
	}

	assert.Equal(t, []ID{iron.Recipe.ID(), plain.Recipe.ID()}, ids(reg.Satisfiable()))
	assert.Len(t, reg.Recipes(), 3)

	tags.Tag("ores/tin", "minecraft:tin_ore")
	assert.Equal(t, []ID{iron.Recipe.ID(), tin.Recipe.ID(), plain.Recipe.ID()}, ids(reg.Satisfiable()))
}

func TestExportAllIdempotent(t *testing.T) {
	reg := NewRegistry()
	a := reg.Define(item.Of(cobble)).Output(gravel, 1).Register()
	b := reg.Define(item.Of(gravel)).Output(sand, 1).Register()
	require.True(t, a.OK())
	require.True(t, b.OK())

	target := &recordingTarget{fail: map[ID]bool{b.Recipe.ID(): true}}

	first := reg.ExportAll(target)
	assert.Equal(t, []ID{a.Recipe.ID()}, first.Exported)
	assert.Contains(t, first.Failed, b.Recipe.ID())

	target.fail = nil
	second := reg.ExportAll(target)
	assert.Equal(t, []ID{b.Recipe.ID()}, second.Exported)
	assert.Equal(t, []ID{a.Recipe.ID()}, second.Skipped)

	third := reg.ExportAll(target)
	assert.Empty(t, third.Exported)
	assert.Len(t, third.Skipped, 2)

	assert.Equal(t, []ID{a.Recipe.ID(), b.Recipe.ID()}, target.added)
}

func TestSummarize(t *testing.T) {
	reg := NewRegistry()
	res := reg.Define(item.Of(cobble, sand).AtLeast(2)).
		OutputChance(flint, 1, 0.25).
		Duration(40).
		Register()
	require.True(t, res.OK())

	s := res.Recipe.Summarize()
	assert.Equal(t, res.Recipe.ID(), s.ID)
	assert.Equal(t, "minecraft:cobblestone|minecraft:sand*2", s.Input)
	assert.Equal(t, []string{"minecraft:cobblestone", "minecraft:sand"}, s.Matches)
	assert.Equal(t, 40, s.Duration)
	assert.Equal(t, []Output{{Item: flint, Count: 1, Chance: 0.25}}, s.Outputs)
}
