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

package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/machine"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvCatalog  = "MILLWORK_CATALOG"
	EnvMachines = "MILLWORK_MACHINES"
	EnvTick     = "MILLWORK_TICK"
	EnvSupply   = "MILLWORK_SUPPLY"
	EnvStateDir = "MILLWORK_STATE_DIR"
	EnvProgress = "MILLWORK_PROGRESS"
)

// machinePrefix names machines created from a bare count.
const machinePrefix = "machine-"

// Config is the daemon configuration.
type Config struct {
	// Catalog is the recipe catalog path or URL. Empty starts with no recipes.
	Catalog string
	// Machines are the IDs of the machines to run.
	Machines []string
	// Tick is the world step interval.
	Tick time.Duration
	// Supply is the charge generated into the grid per step.
	Supply float64
	// StateDir is a snapshot store location (directory or cm://namespace).
	// Empty disables persistence.
	StateDir string
	// SnapshotInterval is how often machine snapshots are saved.
	SnapshotInterval time.Duration
	// Progress selects how persisted progress is restored.
	Progress machine.ProgressPolicy
}

// ConfigFromEnv reads the daemon configuration from the environment.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Catalog:          strings.TrimSpace(os.Getenv(EnvCatalog)),
		Machines:         []string{machinePrefix + "1"},
		Tick:             defaults.TickInterval,
		Supply:           defaults.GridSupplyPerTick,
		StateDir:         strings.TrimSpace(os.Getenv(EnvStateDir)),
		SnapshotInterval: defaults.SnapshotInterval,
		Progress:         machine.ProgressReset,
	}

	if v := os.Getenv(EnvMachines); v != "" {
		ids, err := parseMachines(v)
		if err != nil {
			return nil, err
		}
		cfg.Machines = ids
	}
	if v := os.Getenv(EnvTick); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a positive duration", EnvTick, v)
		}
		cfg.Tick = d
	}
	if v := os.Getenv(EnvSupply); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a non-negative number", EnvSupply, v)
		}
		cfg.Supply = f
	}
	if v := os.Getenv(EnvProgress); v != "" {
		p, err := machine.ParseProgressPolicy(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvProgress, err)
		}
		cfg.Progress = p
	}
	return cfg, nil
}

// parseMachines accepts either a count ("3" yields machine-1..machine-3) or a
// comma-separated list of IDs.
func parseMachines(v string) ([]string, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("invalid %s %q: count must be positive", EnvMachines, v)
		}
		ids := make([]string, n)
		for i := range ids {
			ids[i] = machinePrefix + strconv.Itoa(i+1)
		}
		return ids, nil
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, id := range strings.Split(v, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("invalid %s: duplicate machine %q", EnvMachines, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("invalid %s %q: no machine IDs", EnvMachines, v)
	}
	return ids, nil
}
