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
	"fmt"
	"log/slog"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/header"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/recipe"
)

// SlotStack is a non-empty slot in a snapshot.
type SlotStack struct {
	Slot       int `json:"slot" yaml:"slot"`
	item.Stack `json:",inline" yaml:",inline"`
}

// Snapshot is the persisted form of a machine. Charge always round-trips;
// progress is honored according to the restoring machine's ProgressPolicy.
type Snapshot struct {
	header.Header `json:",inline" yaml:",inline"`

	ID       string      `json:"id" yaml:"id"`
	Charge   float64     `json:"charge" yaml:"charge"`
	Progress int         `json:"progress" yaml:"progress"`
	Recipe   recipe.ID   `json:"recipe,omitempty" yaml:"recipe,omitempty"`
	Slots    []SlotStack `json:"slots" yaml:"slots"`
}

// Snapshot captures the persisted state of m.
func (m *Machine) Snapshot(version string) *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Snapshot{
		ID:       m.id,
		Charge:   m.pool.Balance(),
		Progress: m.progress,
		Recipe:   m.lastRecipe,
		Slots:    []SlotStack{},
	}
	for i, st := range m.slots.Contents() {
		if !st.IsEmpty() {
			s.Slots = append(s.Slots, SlotStack{Slot: i, Stack: st})
		}
	}
	s.Init(header.KindMachineSnapshot, header.APIVersion, version)
	return s
}

// Restore loads s into m. The active recipe is always invalidated and
// re-resolved from the restored input on the next tick. A machine created
// without WithID adopts the snapshot ID.
func (m *Machine) Restore(s *Snapshot) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "snapshot is nil")
	}
	if err := s.Expect(header.KindMachineSnapshot); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stacks := make([]item.Stack, m.slots.Size())
	for _, ss := range s.Slots {
		if ss.Slot < 0 || ss.Slot >= len(stacks) {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("snapshot slot %d out of range", ss.Slot),
				map[string]any{"machine": s.ID, "slots": len(stacks)})
		}
		if ss.Count > m.cfg.StackLimit {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("snapshot slot %d exceeds stack limit", ss.Slot),
				map[string]any{"machine": s.ID, "count": ss.Count, "limit": m.cfg.StackLimit})
		}
		stacks[ss.Slot] = ss.Stack
	}
	if err := m.slots.Load(stacks); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to load snapshot slots", err)
	}

	if s.ID != "" && !m.named {
		m.id = s.ID
	}
	m.pool.Restore(s.Charge)
	m.active = nil
	m.state = StateIdle

	switch m.cfg.Progress {
	case ProgressKeep:
		m.progress = max(0, s.Progress)
		m.lastRecipe = s.Recipe
	default:
		m.progress = 0
		m.lastRecipe = ""
	}

	slog.Debug("machine restored",
		"machine", m.id,
		"charge", m.pool.Balance(),
		"progress", m.progress,
		"policy", m.cfg.Progress)
	return nil
}
