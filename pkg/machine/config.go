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
	"math"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
)

// ProgressPolicy decides what happens to progress when a snapshot is restored.
type ProgressPolicy string

const (
	// ProgressReset discards persisted progress; the batch restarts from zero.
	ProgressReset ProgressPolicy = "reset"
	// ProgressKeep restores persisted progress, clamped to the recipe duration
	// once the recipe is re-resolved.
	ProgressKeep ProgressPolicy = "keep"
)

// ParseProgressPolicy converts a flag or environment value.
func ParseProgressPolicy(s string) (ProgressPolicy, error) {
	switch p := ProgressPolicy(s); p {
	case ProgressReset, ProgressKeep:
		return p, nil
	case "":
		return ProgressReset, nil
	default:
		return "", fmt.Errorf("unknown progress policy %q (want %q or %q)", s, ProgressReset, ProgressKeep)
	}
}

// Config holds the per-machine layout and budget.
type Config struct {
	// Slots is the size of the input range; the output range has the same size.
	Slots int `json:"slots" yaml:"slots"`

	// StackLimit caps the count held by a single slot.
	StackLimit int `json:"stackLimit" yaml:"stackLimit"`

	// Capacity is the maximum buffered charge.
	Capacity float64 `json:"capacity" yaml:"capacity"`

	// StepCost is withdrawn for each step of progress.
	StepCost float64 `json:"stepCost" yaml:"stepCost"`

	// SinkDuration is the step count used to consume unrecognized input.
	SinkDuration int `json:"sinkDuration" yaml:"sinkDuration"`

	// Progress selects how persisted progress is restored.
	Progress ProgressPolicy `json:"progress" yaml:"progress"`
}

// DefaultConfig returns the stock crusher layout: 9+9 slots, an 8000 charge
// buffer and 160 per step.
func DefaultConfig() Config {
	return Config{
		Slots:        defaults.SlotsPerSide,
		StackLimit:   defaults.MaxStackSize,
		Capacity:     defaults.ChargeCapacity,
		StepCost:     defaults.StepCost,
		SinkDuration: defaults.SinkDuration,
		Progress:     ProgressReset,
	}
}

// Validate checks the configuration for values the tick loop cannot run with.
func (c Config) Validate() error {
	var problem string
	switch {
	case c.Slots <= 0:
		problem = "slots must be positive"
	case c.StackLimit <= 0:
		problem = "stack limit must be positive"
	case math.IsNaN(c.Capacity) || math.IsInf(c.Capacity, 0):
		problem = "capacity must be finite"
	case c.Capacity <= 0:
		problem = "capacity must be positive"
	case math.IsNaN(c.StepCost) || math.IsInf(c.StepCost, 0):
		problem = "step cost must be finite"
	case c.StepCost < 0:
		problem = "step cost must not be negative"
	case c.StepCost > c.Capacity:
		problem = "step cost exceeds capacity"
	case c.SinkDuration <= 0:
		problem = "sink duration must be positive"
	case c.Progress != ProgressReset && c.Progress != ProgressKeep:
		problem = fmt.Sprintf("unknown progress policy %q", c.Progress)
	default:
		return nil
	}
	return errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid machine config: "+problem,
		map[string]any{"config": c})
}

// StepsPerBuffer is the number of steps a full charge buffer pays for.
func (c Config) StepsPerBuffer() int {
	if c.StepCost <= 0 {
		return 0
	}
	n := int(c.Capacity / c.StepCost)
	if float64(n)*c.StepCost < c.Capacity {
		n++
	}
	return n
}
