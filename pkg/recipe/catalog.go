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
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/header"
	"github.com/millwork-dev/millwork/pkg/item"
)

// Catalog is the YAML document recipes are loaded from.
//
//	kind: RecipeCatalog
//	apiVersion: millwork.dev/v1
//	group: millwork:crushing
//	tags:
//	  forge:ores/iron: [minecraft:iron_ore, minecraft:deepslate_iron_ore]
//	recipes:
//	  - input: {tag: forge:ores/iron}
//	    duration: 200
//	    outputs:
//	      - {item: millwork:crushed_iron, count: 2}
//	      - {item: minecraft:gravel, count: 1, chance: 0.25}
type Catalog struct {
	header.Header `json:",inline" yaml:",inline"`

	Group   string              `json:"group,omitempty" yaml:"group,omitempty"`
	Tags    map[string][]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Recipes []CatalogEntry      `json:"recipes" yaml:"recipes"`
}

// CatalogEntry describes one recipe in a catalog.
type CatalogEntry struct {
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Group    string       `json:"group,omitempty" yaml:"group,omitempty"`
	Input    CatalogInput `json:"input" yaml:"input"`
	Duration *int         `json:"duration,omitempty" yaml:"duration,omitempty"`
	Outputs  []Output     `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	NoOutput bool         `json:"noOutput,omitempty" yaml:"noOutput,omitempty"`
}

// CatalogInput selects the accepted input by item, item list or tag.
type CatalogInput struct {
	Item  string   `json:"item,omitempty" yaml:"item,omitempty"`
	Items []string `json:"items,omitempty" yaml:"items,omitempty"`
	Tag   string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	Count int      `json:"count,omitempty" yaml:"count,omitempty"`
}

// CatalogFailure records a rejected catalog entry.
type CatalogFailure struct {
	Index  int    `json:"index" yaml:"index"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// CatalogReport lists the outcome of every entry in a loaded catalog.
type CatalogReport struct {
	Registered []ID             `json:"registered" yaml:"registered"`
	Failed     []CatalogFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
	Tags       int              `json:"tags" yaml:"tags"`
}

// LoadCatalogFile opens path and loads it with LoadCatalog.
func LoadCatalogFile(path string, reg *Registry, tags *item.Catalog) (*CatalogReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "failed to open recipe catalog", err)
	}
	defer f.Close()
	return LoadCatalog(f, reg, tags)
}

// LoadCatalog decodes a catalog document and registers its recipes into reg in
// document order. Declared tags are added to tags, which may be nil when the
// catalog declares none. Invalid entries are reported and skipped; only a
// malformed document returns an error.
func LoadCatalog(r io.Reader, reg *Registry, tags *item.Catalog) (*CatalogReport, error) {
	start := time.Now()
	defer func() {
		catalogLoadDuration.Observe(time.Since(start).Seconds())
	}()

	var doc Catalog
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to decode recipe catalog", err)
	}
	if err := doc.Expect(header.KindRecipeCatalog); err != nil {
		return nil, err
	}

	report := &CatalogReport{Registered: []ID{}}

	if len(doc.Tags) > 0 {
		if tags == nil {
			return nil, errors.New(errors.ErrCodeInvalidRequest, "catalog declares tags but no tag catalog was provided")
		}
		for tag, raw := range doc.Tags {
			ids := make([]item.ID, 0, len(raw))
			for _, s := range raw {
				id, err := item.ParseID(s)
				if err != nil {
					return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid tag member", err,
						map[string]any{"tag": tag})
				}
				ids = append(ids, id)
			}
			tags.Tag(tag, ids...)
			report.Tags++
		}
	}

	var src item.TagSource = reg.Tags()
	if tags != nil {
		src = tags
	}

	for i, entry := range doc.Recipes {
		in, err := entry.Input.ingredient(src)
		if err != nil {
			report.Failed = append(report.Failed, CatalogFailure{Index: i, Name: entry.Name, Reason: err.Error()})
			slog.Warn("skipping catalog entry", "index", i, "name", entry.Name, "error", err)
			continue
		}

		b := reg.Define(in).Name(entry.Name)
		if g := entry.Group; g != "" {
			b.Group(g)
		} else if doc.Group != "" {
			b.Group(doc.Group)
		}
		if entry.Duration != nil {
			b.Duration(*entry.Duration)
		}
		if entry.NoOutput {
			b.NoOutput()
		}
		for _, o := range entry.Outputs {
			b.OutputChance(o.Item, o.Count, o.Chance)
		}

		res := b.Register()
		if !res.OK() {
			report.Failed = append(report.Failed, CatalogFailure{Index: i, Name: entry.Name, Reason: res.Err.Error()})
			continue
		}
		report.Registered = append(report.Registered, res.Recipe.ID())
	}

	slog.Info("recipe catalog loaded",
		"registered", len(report.Registered),
		"failed", len(report.Failed),
		"tags", report.Tags)

	return report, nil
}

func (in CatalogInput) ingredient(src item.TagSource) (item.Ingredient, error) {
	var ing item.Ingredient
	switch {
	case in.Tag != "":
		if in.Item != "" || len(in.Items) > 0 {
			return ing, fmt.Errorf("input mixes tag and items")
		}
		ing = item.Tagged(src, in.Tag)
	case in.Item != "" || len(in.Items) > 0:
		raw := in.Items
		if in.Item != "" {
			raw = append([]string{in.Item}, raw...)
		}
		ids := make([]item.ID, 0, len(raw))
		for _, s := range raw {
			id, err := item.ParseID(s)
			if err != nil {
				return ing, err
			}
			ids = append(ids, id)
		}
		ing = item.Of(ids...)
	default:
		return ing, fmt.Errorf("input is not defined")
	}
	if in.Count < 0 {
		return ing, fmt.Errorf("input count must not be negative")
	}
	if in.Count > 1 {
		ing = ing.AtLeast(in.Count)
	}
	return ing, nil
}
