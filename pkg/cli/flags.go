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

	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/recipe"
	"github.com/millwork-dev/millwork/pkg/serializer"
)

// Flags are built per command so that parsed values never leak between
// command instances.

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage: `Output destination: file path, ConfigMap URI (cm://namespace/name),
	or empty for stdout.`,
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("Output format (supported: %v)", serializer.SupportedFormats()),
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "catalog",
		Aliases:  []string{"c"},
		Required: true,
		Sources:  cli.EnvVars("MILLWORK_CATALOG"),
		Usage:    "Path or HTTP(S) URL of the YAML recipe catalog",
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Aliases: []string{"k"},
		Sources: cli.EnvVars("KUBECONFIG"),
		Usage:   "Path to kubeconfig used for ConfigMap destinations (default: in-cluster or ~/.kube/config)",
	}
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", f)
	}
	return f, nil
}

// userAgent identifies this build on remote catalog downloads.
func userAgent() serializer.HttpReaderOption {
	return serializer.WithUserAgent(name + "/" + version)
}

// loadRegistry builds a registry from the catalog at path. Rejected entries
// are logged and reported; only an unreadable or malformed document fails.
func loadRegistry(ctx context.Context, path string) (*recipe.Registry, *recipe.CatalogReport, error) {
	rc, err := serializer.Open(ctx, path, userAgent())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog %q: %w", path, err)
	}
	defer rc.Close()

	tags := item.NewCatalog()
	reg := recipe.NewRegistry(recipe.WithTags(tags))
	report, err := recipe.LoadCatalog(rc, reg, tags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog %q: %w", path, err)
	}
	return reg, report, nil
}

// writeOutput serializes doc to dest in the --format format.
func writeOutput(ctx context.Context, cmd *cli.Command, dest string, doc any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser := serializer.NewFileWriterOrStdout(format, dest)
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()

	return ser.Serialize(ctx, doc)
}
