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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
)

const testCatalog = `
kind: RecipeCatalog
apiVersion: millwork.dev/v1
group: millwork:crushing
tags:
  ores/iron: [minecraft:iron_ore, minecraft:deepslate_iron_ore]
  ores/tin: []
recipes:
  - input: {tag: ores/iron}
    duration: 200
    outputs:
      - {item: millwork:crushed_iron, count: 2}
      - {item: minecraft:gravel, count: 1, chance: 0.25}
  - name: cobble_to_gravel
    input: {item: minecraft:cobblestone}
    outputs:
      - {item: minecraft:gravel, count: 1}
  - name: broken
    input: {item: minecraft:stone}
  - name: tin
    input: {tag: ores/tin}
    outputs:
      - {item: millwork:crushed_tin, count: 2}
  - name: void
    group: millwork:disposal
    input: {items: [minecraft:dirt, minecraft:sand], count: 4}
    noOutput: true
    duration: 20
`

func TestLoadCatalog(t *testing.T) {
	tags := item.NewCatalog()
	reg := NewRegistry()

	report, err := LoadCatalog(strings.NewReader(testCatalog), reg, tags)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Tags)
	assert.Equal(t, []ID{
		"millwork:crushed_iron",
		"millwork:cobble_to_gravel",
		"millwork:tin",
		"millwork:void",
	}, report.Registered)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 2, report.Failed[0].Index)
	assert.Equal(t, "broken", report.Failed[0].Name)

	iron, ok := reg.Resolve(item.NewStack("minecraft:deepslate_iron_ore", 1))
	require.True(t, ok)
	assert.Equal(t, "millwork:crushing", iron.Group())
	assert.Equal(t, 200, iron.Duration(item.Empty))

	void, ok := reg.Lookup("millwork:void")
	require.True(t, ok)
	assert.Equal(t, "millwork:disposal", void.Group())
	assert.False(t, void.Matches(item.NewStack("minecraft:dirt", 3)))
	assert.True(t, void.Matches(item.NewStack("minecraft:sand", 4)))
	assert.Empty(t, void.Outputs())

	assert.Len(t, reg.Satisfiable(), 3)
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		tags *item.Catalog
	}{
		{"malformed", "recipes: [", item.NewCatalog()},
		{"wrong kind", "kind: MachineSnapshot\nrecipes: []", item.NewCatalog()},
		{"tags without catalog", "tags:\n  a: [minecraft:stone]\n", nil},
		{"bad tag member", "tags:\n  a: ['x:y:z']\n", item.NewCatalog()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.doc), NewRegistry(), tt.tags)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
		})
	}
}

func TestLoadCatalogEntryErrors(t *testing.T) {
	doc := `
recipes:
  - input: {}
    outputs: [{item: minecraft:gravel, count: 1}]
  - input: {tag: a, item: minecraft:stone}
    outputs: [{item: minecraft:gravel, count: 1}]
  - input: {item: "bad:id:here"}
    outputs: [{item: minecraft:gravel, count: 1}]
  - input: {item: minecraft:stone}
    outputs: [{item: minecraft:gravel, count: 1}]
  - name: zero_duration
    input: {item: minecraft:cobblestone}
    outputs: [{item: minecraft:sand, count: 1}]
    duration: 0
`
	reg := NewRegistry()
	report, err := LoadCatalog(strings.NewReader(doc), reg, nil)
	require.NoError(t, err)
	require.Len(t, report.Failed, 4)
	assert.Equal(t, "zero_duration", report.Failed[3].Name)
	assert.Contains(t, report.Failed[3].Reason, "duration must be positive")
	assert.Equal(t, []ID{"millwork:gravel"}, report.Registered)
	assert.Equal(t, 1, reg.Len())
}

func TestLoadCatalogFileMissing(t *testing.T) {
	_, err := LoadCatalogFile("does-not-exist.yaml", NewRegistry(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestLoadCatalogEmpty(t *testing.T) {
	report, err := LoadCatalog(strings.NewReader(""), NewRegistry(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Registered)
	assert.Empty(t, report.Failed)
}
