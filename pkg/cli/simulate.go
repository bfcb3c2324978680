/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/millwork-dev/millwork/pkg/charge"
	"github.com/millwork-dev/millwork/pkg/header"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/machine"
	"github.com/millwork-dev/millwork/pkg/serializer"
	"github.com/millwork-dev/millwork/pkg/store"
)

const defaultSimulationTicks = 200

// SimulationResult is the output of the simulate command.
type SimulationResult struct {
	header.Header `json:",inline" yaml:",inline"`

	Ticks       int                   `json:"ticks" yaml:"ticks"`
	Completions int                   `json:"completions" yaml:"completions"`
	Destroyed   int                   `json:"destroyed" yaml:"destroyed"`
	States      map[machine.State]int `json:"states" yaml:"states"`
	Produced    []item.Stack          `json:"produced" yaml:"produced"`
	Rejected    []item.Stack          `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Status      machine.Status        `json:"status" yaml:"status"`
}

// simulation collects completion events for one run.
type simulation struct {
	completions int
	destroyed   int
	produced    map[item.ID]int
}

func (s *simulation) Completed(e machine.Event) {
	s.completions++
	if e.Sink {
		s.destroyed += e.Consumed.Count
	}
	for _, out := range e.Outputs {
		s.produced[out.Item] += out.Count
	}
}

func (s *simulation) stacks() []item.Stack {
	out := make([]item.Stack, 0, len(s.produced))
	for id, n := range s.produced {
		out = append(out, item.NewStack(id, n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

func simulateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "simulate",
		EnableShellCompletion: true,
		Usage:                 "Drive a single machine for a number of ticks",
		Description: `Build one machine from a catalog, fill its input slots and tick it.

The result lists the completed batches, the items produced, how many ticks
ended in each state and the final machine status. Input no recipe accepts is
rejected by the slots and reported. Unprocessable items restored from a
snapshot are consumed by the destruction recipe and counted as destroyed.

# Charge

--supply sets how much charge the machine may pull per tick. Zero (the
default) means an unlimited supply.

# Persistence

--restore loads a machine snapshot (file or URL) before ticking. --save writes
the final snapshot to a store: a directory or cm://namespace.

# Examples

  millwork simulate -c recipes.yaml --input "minecraft:iron_ore*8" --ticks 2000
  millwork simulate -c recipes.yaml --input minecraft:cobblestone --supply 80 --seed 7
  millwork simulate -c recipes.yaml --restore crusher.yaml --progress keep --save ./state`,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.StringSliceFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input stack namespace:path*count (can be repeated)",
			},
			&cli.IntFlag{
				Name:  "ticks",
				Value: defaultSimulationTicks,
				Usage: "Number of ticks to run",
			},
			&cli.FloatFlag{
				Name:  "supply",
				Usage: "Charge available per tick (0 for unlimited)",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Seed for chance outputs (0 for a random seed)",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Machine ID (default: generated, or taken from --restore)",
			},
			&cli.StringFlag{
				Name:  "progress",
				Value: string(machine.ProgressReset),
				Usage: "How restored progress is honored (reset, keep)",
			},
			&cli.StringFlag{
				Name:  "restore",
				Usage: "Machine snapshot to restore before ticking",
			},
			&cli.StringFlag{
				Name:  "save",
				Usage: "Store to save the final snapshot to (directory or cm://namespace)",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			ticks := cmd.Int("ticks")
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be positive, got %d", ticks)
			}
			policy, err := machine.ParseProgressPolicy(cmd.String("progress"))
			if err != nil {
				return err
			}

			inputs := make([]item.Stack, 0, len(cmd.StringSlice("input")))
			for _, raw := range cmd.StringSlice("input") {
				s, err := item.ParseStack(raw)
				if err != nil {
					return fmt.Errorf("invalid --input %q: %w", raw, err)
				}
				inputs = append(inputs, s)
			}

			reg, _, err := loadRegistry(ctx, cmd.String("catalog"))
			if err != nil {
				return err
			}

			sim := &simulation{produced: make(map[item.ID]int)}
			cfg := machine.DefaultConfig()
			cfg.Progress = policy
			opts := []machine.Option{
				machine.WithConfig(cfg),
				machine.WithNotifier(sim),
				machine.WithProvider(supplyProvider(cmd.Float("supply"))),
			}
			if id := cmd.String("id"); id != "" {
				opts = append(opts, machine.WithID(id))
			}
			if seed := cmd.Int("seed"); seed != 0 {
				opts = append(opts, machine.WithSeed(uint64(seed)))
			}

			m, err := machine.New(reg, opts...)
			if err != nil {
				return err
			}

			if path := cmd.String("restore"); path != "" {
				snap, err := serializer.FromFile[machine.Snapshot](path)
				if err != nil {
					return fmt.Errorf("failed to load snapshot from %q: %w", path, err)
				}
				if err := m.Restore(snap); err != nil {
					return fmt.Errorf("failed to restore snapshot: %w", err)
				}
			}

			var rejected []item.Stack
			for _, s := range inputs {
				if rest := m.InsertAny(s); !rest.IsEmpty() {
					slog.Warn("input not accepted", "input", s.String(), "remainder", rest.String())
					rejected = append(rejected, rest)
				}
			}

			res := SimulationResult{
				States:   make(map[machine.State]int),
				Rejected: rejected,
			}
			for res.Ticks < ticks {
				if err := ctx.Err(); err != nil {
					return err
				}
				res.States[m.Tick()]++
				res.Ticks++
			}
			res.Completions = sim.completions
			res.Destroyed = sim.destroyed
			res.Produced = sim.stacks()
			res.Status = m.Status()
			res.Init(header.KindSimulation, header.APIVersion, version)

			slog.Info("simulation completed",
				"machine", m.ID(),
				"ticks", res.Ticks,
				"completions", res.Completions,
				"state", res.Status.State)

			if loc := cmd.String("save"); loc != "" {
				st, err := store.Open(loc)
				if err != nil {
					return err
				}
				if err := st.Save(ctx, m.Snapshot(version)); err != nil {
					return fmt.Errorf("failed to save snapshot: %w", err)
				}
			}

			return writeOutput(ctx, cmd, cmd.String("output"), res)
		},
	}
}

func supplyProvider(perTick float64) charge.Provider {
	if perTick <= 0 {
		return charge.Unlimited{}
	}
	return charge.PerTick(perTick)
}
