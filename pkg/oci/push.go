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

package oci

import (
	"bytes"
	"context"
	"crypto/tls"
	stderrors "errors"
	"log/slog"
	"net/http"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
)

// ArtifactType identifies millwork recipe artifacts.
const ArtifactType = "application/vnd.millwork.recipes.v1"

// Layer media types.
const (
	MediaTypeCatalog   = "application/vnd.millwork.catalog.v1+yaml"
	MediaTypeWorkbench = "application/vnd.millwork.workbench.v1+yaml"
)

// Layer is one document stored in the artifact.
type Layer struct {
	// Name becomes the layer's org.opencontainers.image.title annotation.
	Name      string
	MediaType string
	Data      []byte
}

// PackageOptions configures local packaging into an OCI image layout.
type PackageOptions struct {
	Layers    []Layer
	OutputDir string
	Tag       string
	// Annotations are added to the manifest.
	Annotations map[string]string
	// ReproducibleTimestamp pins org.opencontainers.image.created.
	ReproducibleTimestamp string
}

// PackageResult describes a packaged artifact.
type PackageResult struct {
	Digest    string
	Tag       string
	StorePath string
}

// Package writes the layers and an OCI 1.1 manifest into an image layout
// under OutputDir and tags it.
func Package(ctx context.Context, opts PackageOptions) (*PackageResult, error) {
	if opts.Tag == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "tag is required for OCI packaging")
	}
	if len(opts.Layers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "artifact has no layers")
	}

	storePath, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to resolve output directory", err)
	}
	store, err := oci.New(storePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create OCI layout", err)
	}

	layers := make([]ociv1.Descriptor, 0, len(opts.Layers))
	for _, l := range opts.Layers {
		desc := content.NewDescriptorFromBytes(l.MediaType, l.Data)
		if l.Name != "" {
			desc.Annotations = map[string]string{ociv1.AnnotationTitle: l.Name}
		}
		if err := store.Push(ctx, desc, bytes.NewReader(l.Data)); err != nil && !stderrors.Is(err, errdef.ErrAlreadyExists) {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to store layer "+l.Name, err)
		}
		layers = append(layers, desc)
	}

	annotations := make(map[string]string, len(opts.Annotations)+1)
	for k, v := range opts.Annotations {
		annotations[k] = v
	}
	if opts.ReproducibleTimestamp != "" {
		annotations[ociv1.AnnotationCreated] = opts.ReproducibleTimestamp
	}

	manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              layers,
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to pack manifest", err)
	}
	if err := store.Tag(ctx, manifest, opts.Tag); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to tag manifest", err)
	}

	return &PackageResult{
		Digest:    manifest.Digest.String(),
		Tag:       opts.Tag,
		StorePath: storePath,
	}, nil
}

// PushOptions configures pushing a packaged artifact.
type PushOptions struct {
	Registry   string
	Repository string
	Tag        string
	// PlainHTTP uses HTTP instead of HTTPS.
	PlainHTTP bool
	// InsecureTLS skips certificate verification.
	InsecureTLS bool
}

// PushResult describes a pushed artifact.
type PushResult struct {
	Digest    string
	Reference string
}

// PushFromStore copies the tagged manifest from the image layout at
// storePath to the remote repository.
func PushFromStore(ctx context.Context, storePath string, opts PushOptions) (*PushResult, error) {
	ref, err := ValidateReference(opts.Registry, opts.Repository, opts.Tag)
	if err != nil {
		return nil, err
	}

	store, err := oci.New(storePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to open OCI layout", err)
	}

	repo, err := remote.NewRepository(stripProtocol(opts.Registry) + "/" + opts.Repository)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	ctx, cancel := context.WithTimeout(ctx, defaults.OCIPushTimeout)
	defer cancel()

	desc, err := oras.Copy(ctx, store, opts.Tag, repo, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to push artifact to registry", err)
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: ref,
	}, nil
}

// PublishConfig configures PackageAndPush.
type PublishConfig struct {
	Layers    []Layer
	OutputDir string
	Reference *Reference
	// Version is recorded as org.opencontainers.image.version.
	Version     string
	PlainHTTP   bool
	InsecureTLS bool
}

// PackageAndPush packages the layers locally and pushes them to the
// registry named by cfg.Reference.
func PackageAndPush(ctx context.Context, cfg PublishConfig) (*PushResult, error) {
	if cfg.Reference == nil || !cfg.Reference.IsOCI {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "OCI reference is required")
	}
	if _, err := ValidateReference(cfg.Reference.Registry, cfg.Reference.Repository, cfg.Reference.Tag); err != nil {
		return nil, err
	}

	pkg, err := Package(ctx, PackageOptions{
		Layers:    cfg.Layers,
		OutputDir: cfg.OutputDir,
		Tag:       cfg.Reference.Tag,
		Annotations: map[string]string{
			ociv1.AnnotationVersion: cfg.Version,
			ociv1.AnnotationTitle:   "millwork recipes",
			ociv1.AnnotationSource:  "https://github.com/millwork-dev/millwork",
		},
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("artifact packaged", "digest", pkg.Digest, "store", pkg.StorePath)

	res, err := PushFromStore(ctx, pkg.StorePath, PushOptions{
		Registry:    cfg.Reference.Registry,
		Repository:  cfg.Reference.Repository,
		Tag:         cfg.Reference.Tag,
		PlainHTTP:   cfg.PlainHTTP,
		InsecureTLS: cfg.InsecureTLS,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("artifact pushed", "reference", res.Reference, "digest", res.Digest)
	return res, nil
}

// createAuthClient returns a client using Docker credential helpers.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credentials unavailable", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	c := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		c.Credential = credentials.Credential(credStore)
	}
	return c
}
