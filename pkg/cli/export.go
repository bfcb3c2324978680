/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/millwork-dev/millwork/pkg/crafting"
	"github.com/millwork-dev/millwork/pkg/k8s/client"
	"github.com/millwork-dev/millwork/pkg/oci"
	"github.com/millwork-dev/millwork/pkg/serializer"
)

const (
	defaultOCITag        = "latest"
	defaultWorkbenchName = "millwork"
)

// exportCmdOptions holds parsed options for the export command.
type exportCmdOptions struct {
	catalog     string
	to          string
	workbench   string
	kubeconfig  string
	ociLayout   string
	noPush      bool
	plainHTTP   bool
	insecureTLS bool
	format      serializer.Format
	target      *oci.Reference
}

// parseExportCmdOptions parses and validates command options.
func parseExportCmdOptions(cmd *cli.Command) (*exportCmdOptions, error) {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}

	opts := &exportCmdOptions{
		catalog:     cmd.String("catalog"),
		to:          strings.TrimSpace(cmd.String("to")),
		workbench:   cmd.String("workbench"),
		kubeconfig:  cmd.String("kubeconfig"),
		ociLayout:   cmd.String("oci-layout"),
		noPush:      cmd.Bool("no-push"),
		plainHTTP:   cmd.Bool("plain-http"),
		insecureTLS: cmd.Bool("insecure-tls"),
		format:      format,
	}
	if opts.workbench == "" {
		opts.workbench = defaultWorkbenchName
	}

	opts.target, err = oci.ParseOutputTarget(opts.to)
	if err != nil {
		return nil, fmt.Errorf("invalid --to: %w", err)
	}
	if !opts.target.IsOCI {
		if opts.noPush || opts.ociLayout != "" {
			return nil, fmt.Errorf("--no-push and --oci-layout require an oci:// target")
		}
		return opts, nil
	}

	if opts.target.Tag == "" {
		opts.target = opts.target.WithTag(defaultOCITag)
	}
	if opts.noPush && opts.ociLayout == "" {
		return nil, fmt.Errorf("--no-push requires --oci-layout")
	}
	return opts, nil
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:                  "export",
		EnableShellCompletion: true,
		Usage:                 "Republish a catalog's recipes into a workbench listing",
		Description: `Load a recipe catalog, export every satisfiable recipe into a workbench
and write the resulting listing.

Each recipe ID is exported at most once; recipes the workbench refuses are
logged and the export continues.

# Destinations

--to accepts:
  - empty            stdout
  - a file path      written in --format
  - cm://ns/name     a Kubernetes ConfigMap
  - oci://registry/repository[:tag]
                     an OCI artifact holding the listing and the source catalog

# Examples

  millwork export -c recipes.yaml
  millwork export -c recipes.yaml --to cm://millwork/workbench
  millwork export -c recipes.yaml --to oci://ghcr.io/acme/recipes:v1
  millwork export -c recipes.yaml --to oci://localhost:5000/recipes --plain-http
  millwork export -c recipes.yaml --to oci://ghcr.io/acme/recipes --no-push --oci-layout ./dist`,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.StringFlag{
				Name:    "to",
				Aliases: []string{"output", "o"},
				Usage:   "Destination: file path, cm://namespace/name, oci://registry/repository[:tag] (default: stdout)",
			},
			&cli.StringFlag{
				Name:  "workbench",
				Value: defaultWorkbenchName,
				Usage: "Name of the workbench listing",
			},
			&cli.StringFlag{
				Name:  "oci-layout",
				Usage: "Keep the OCI image layout in this directory (default: temporary)",
			},
			&cli.BoolFlag{
				Name:  "no-push",
				Usage: "Package the OCI artifact locally without pushing it",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the OCI registry",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the OCI registry",
			},
			formatFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parseExportCmdOptions(cmd)
			if err != nil {
				return err
			}

			reg, _, err := loadRegistry(ctx, opts.catalog)
			if err != nil {
				return err
			}

			wb := crafting.NewWorkbench(opts.workbench)
			report := reg.ExportAll(wb)
			for id, reason := range report.Failed {
				slog.Warn("recipe not exported", "recipe", id, "reason", reason)
			}
			slog.Info("recipes exported",
				"workbench", opts.workbench,
				"exported", len(report.Exported),
				"skipped", len(report.Skipped),
				"failed", len(report.Failed))

			listing := wb.Listing(version)

			if opts.target.IsOCI {
				return exportOCI(ctx, opts, listing)
			}
			if opts.kubeconfig != "" && strings.HasPrefix(opts.to, serializer.ConfigMapURIScheme) {
				return exportConfigMap(ctx, opts, listing)
			}
			return writeOutput(ctx, cmd, opts.to, listing)
		},
	}
}

// exportConfigMap writes the listing with a client built from --kubeconfig.
func exportConfigMap(ctx context.Context, opts *exportCmdOptions, listing *crafting.Listing) error {
	namespace, name, err := serializer.ParseConfigMapURI(opts.to)
	if err != nil {
		return err
	}
	cs, _, err := client.BuildKubeClient(opts.kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to build kubernetes client: %w", err)
	}
	w := serializer.NewConfigMapWriter(namespace, name, opts.format, serializer.WithKubeClient(cs))
	defer w.Close()
	return w.Serialize(ctx, listing)
}

// exportOCI packages the listing and the source catalog as an OCI artifact
// and pushes it unless --no-push is set.
func exportOCI(ctx context.Context, opts *exportCmdOptions, listing *crafting.Listing) error {
	listingData, err := serializer.Marshal(serializer.FormatYAML, listing)
	if err != nil {
		return fmt.Errorf("failed to marshal workbench listing: %w", err)
	}
	catalogData, err := readCatalog(ctx, opts.catalog)
	if err != nil {
		return err
	}
	layers := []oci.Layer{
		{Name: "workbench.yaml", MediaType: oci.MediaTypeWorkbench, Data: listingData},
		{Name: "catalog.yaml", MediaType: oci.MediaTypeCatalog, Data: catalogData},
	}

	layoutDir := opts.ociLayout
	if layoutDir == "" {
		layoutDir, err = os.MkdirTemp("", "millwork-oci-")
		if err != nil {
			return fmt.Errorf("failed to create OCI layout directory: %w", err)
		}
		defer os.RemoveAll(layoutDir)
	}

	slog.Info("packaging recipes as OCI artifact",
		"reference", opts.target.ImageReference(),
		"push", !opts.noPush)

	if opts.noPush {
		res, err := oci.Package(ctx, oci.PackageOptions{
			Layers:    layers,
			OutputDir: layoutDir,
			Tag:       opts.target.Tag,
		})
		if err != nil {
			return fmt.Errorf("failed to package OCI artifact: %w", err)
		}
		slog.Info("OCI artifact packaged locally",
			"digest", res.Digest,
			"tag", res.Tag,
			"store_path", res.StorePath)
		return nil
	}

	res, err := oci.PackageAndPush(ctx, oci.PublishConfig{
		Layers:      layers,
		OutputDir:   layoutDir,
		Reference:   opts.target,
		Version:     version,
		PlainHTTP:   opts.plainHTTP,
		InsecureTLS: opts.insecureTLS,
	})
	if err != nil {
		return fmt.Errorf("failed to publish OCI artifact: %w", err)
	}
	slog.Info("OCI artifact pushed successfully",
		"reference", res.Reference,
		"digest", res.Digest)
	return nil
}

func readCatalog(ctx context.Context, path string) ([]byte, error) {
	rc, err := serializer.Open(ctx, path, userAgent())
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %q: %w", path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %q: %w", path, err)
	}
	return data, nil
}
