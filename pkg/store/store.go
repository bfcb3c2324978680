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

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/k8s/client"
	"github.com/millwork-dev/millwork/pkg/machine"
	"github.com/millwork-dev/millwork/pkg/serializer"
)

// Store saves and loads machine snapshots keyed by machine ID.
type Store interface {
	Save(ctx context.Context, s *machine.Snapshot) error
	Load(ctx context.Context, id string) (*machine.Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Open returns the store for location. "cm://" with an optional namespace
// selects a ConfigMapStore using the shared kube client; any other value is
// a directory for a FileStore.
func Open(location string) (Store, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "store location is empty")
	}

	if strings.HasPrefix(location, serializer.ConfigMapURIScheme) {
		ns := strings.Trim(strings.TrimPrefix(location, serializer.ConfigMapURIScheme), "/")
		if ns == "" {
			ns = client.Namespace()
		}
		cs, _, err := client.GetKubeClient()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to get kubernetes client", err)
		}
		return NewConfigMapStore(cs, ns), nil
	}

	return NewFileStore(location)
}

// validateID rejects IDs that cannot be used as file or object names.
func validateID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "machine id is empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("machine id %q is not a valid name", id), map[string]any{"id": id})
	}
	return nil
}
