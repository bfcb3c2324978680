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
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/machine"
	"github.com/millwork-dev/millwork/pkg/serializer"
)

// FileStore keeps one document per machine under a directory.
type FileStore struct {
	dir    string
	format serializer.Format
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFormat sets the document format. Table output cannot be read back,
// so anything other than JSON means YAML.
func WithFormat(f serializer.Format) FileOption {
	return func(s *FileStore) {
		if f == serializer.FormatJSON {
			s.format = f
			return
		}
		s.format = serializer.FormatYAML
	}
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to create state directory %s", dir), err)
	}
	s := &FileStore{
		dir:    dir,
		format: serializer.FormatYAML,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the state directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+"."+s.format.Extension())
}

// Save writes snap atomically, replacing any previous document.
func (s *FileStore) Save(_ context.Context, snap *machine.Snapshot) error {
	if snap == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "snapshot is nil")
	}
	if err := validateID(snap.ID); err != nil {
		return err
	}

	data, err := serializer.Marshal(s.format, snap)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to serialize snapshot", err)
	}
	if err := serializer.WriteToFile(s.path(snap.ID), data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to write snapshot %s", snap.ID), err)
	}

	slog.Debug("snapshot saved", "machine", snap.ID, "path", s.path(snap.ID))
	return nil
}

// Load reads the snapshot for id.
func (s *FileStore) Load(_ context.Context, id string) (*machine.Snapshot, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	path := s.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "snapshot not found",
			map[string]any{"machine": id, "path": path})
	}

	snap, err := serializer.FromFile[machine.Snapshot](path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to read snapshot %s", id), err)
	}
	return snap, nil
}

// List returns the IDs of stored snapshots in lexical order.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to list state directory", err)
	}

	suffix := "." + s.format.Extension()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the snapshot for id. Deleting a missing snapshot is not an error.
func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to delete snapshot %s", id), err)
	}
	return nil
}
