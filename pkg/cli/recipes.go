/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/recipe"
)

// RecipeList is the output of the recipes command.
type RecipeList struct {
	Catalog string                  `json:"catalog" yaml:"catalog"`
	Count   int                     `json:"count" yaml:"count"`
	Recipes []recipe.Summary        `json:"recipes" yaml:"recipes"`
	Failed  []recipe.CatalogFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
}

func recipesCmd() *cli.Command {
	return &cli.Command{
		Name:                  "recipes",
		EnableShellCompletion: true,
		Usage:                 "List the recipes registered from a catalog",
		Description: `Load a recipe catalog and list what was registered, in resolution order.

Entries the catalog could not register are reported under "failed" and do not
stop the load.

# Examples

List every recipe:
  millwork recipes --catalog recipes.yaml

Only recipes whose input can match at least one item, as JSON:
  millwork recipes -c recipes.yaml --satisfiable --format json`,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.BoolFlag{
				Name:  "satisfiable",
				Usage: "Hide recipes whose tag input matches no item",
			},
			&cli.StringFlag{
				Name:  "group",
				Usage: "Only list recipes in this group",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			path := cmd.String("catalog")
			reg, report, err := loadRegistry(ctx, path)
			if err != nil {
				return err
			}

			recipes := reg.Recipes()
			if cmd.Bool("satisfiable") {
				recipes = reg.Satisfiable()
			}
			group := cmd.String("group")

			list := RecipeList{
				Catalog: path,
				Recipes: make([]recipe.Summary, 0, len(recipes)),
				Failed:  report.Failed,
			}
			for _, r := range recipes {
				if group != "" && r.Group() != group {
					continue
				}
				list.Recipes = append(list.Recipes, r.Summarize())
			}
			list.Count = len(list.Recipes)

			return writeOutput(ctx, cmd, cmd.String("output"), list)
		},
	}
}

// Resolution is the output of the resolve command.
type Resolution struct {
	Input    item.Stack     `json:"input" yaml:"input"`
	Recipe   recipe.Summary `json:"recipe" yaml:"recipe"`
	Duration int            `json:"duration" yaml:"duration"`
}

func resolveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "resolve",
		EnableShellCompletion: true,
		Usage:                 "Find the recipe that processes an input stack",
		Description: `Resolve an input stack against a catalog. The first registered recipe
whose input accepts the stack wins; the reported duration is computed for that
exact stack.

# Examples

  millwork resolve -c recipes.yaml --item minecraft:iron_ore
  millwork resolve -c recipes.yaml --item "minecraft:iron_ore*16" --format json`,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.StringFlag{
				Name:     "item",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "Input stack as namespace:path or namespace:path*count",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			stack, err := item.ParseStack(cmd.String("item"))
			if err != nil {
				return fmt.Errorf("invalid --item: %w", err)
			}

			reg, _, err := loadRegistry(ctx, cmd.String("catalog"))
			if err != nil {
				return err
			}

			r, ok := reg.Resolve(stack)
			if !ok {
				return errors.NewWithContext(errors.ErrCodeNotFound, "no recipe accepts the input",
					map[string]any{"input": stack.String()})
			}
			slog.Debug("resolved input", "input", stack.String(), "recipe", r.ID())

			return writeOutput(ctx, cmd, cmd.String("output"), Resolution{
				Input:    stack,
				Recipe:   r.Summarize(),
				Duration: r.Duration(stack),
			})
		},
	}
}
