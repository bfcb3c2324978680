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

package header

import (
	"time"

	"github.com/millwork-dev/millwork/pkg/errors"
)

// Kind identifies a millwork document type.
type Kind string

// APIVersion is the schema version stamped on millwork documents.
const APIVersion = "millwork.dev/v1"

const (
	KindMachineSnapshot Kind = "MachineSnapshot"
	KindRecipeCatalog   Kind = "RecipeCatalog"
	KindWorkbench       Kind = "Workbench"
	KindSimulation      Kind = "SimulationResult"
)

// Metadata keys written by Init.
const (
	MetadataTimestamp = "timestamp"
	MetadataVersion   = "version"
)

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known document kind.
func (k *Kind) IsValid() bool {
	switch *k {
	case KindMachineSnapshot, KindRecipeCatalog, KindWorkbench, KindSimulation:
		return true
	default:
		return false
	}
}

// Header is embedded inline at the top of every persisted or exported
// document.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init stamps the header with kind, apiVersion, the current UTC time and the
// producing build version. Existing metadata is discarded.
func (h *Header) Init(kind Kind, apiVersion string, version string) {
	h.Kind = kind
	h.APIVersion = apiVersion
	h.Metadata = map[string]string{
		MetadataTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if version != "" {
		h.Metadata[MetadataVersion] = version
	}
}

// Expect checks that a decoded document is of kind want. Headerless
// documents are accepted so hand-written files may omit the header.
func (h *Header) Expect(want Kind) error {
	switch {
	case h.Kind == "" || h.Kind == want:
		return nil
	case !h.Kind.IsValid():
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "unknown document kind",
			map[string]any{"kind": h.Kind, "expected": want})
	}
	return errors.NewWithContext(errors.ErrCodeInvalidRequest, "unexpected document kind",
		map[string]any{"kind": h.Kind, "expected": want})
}

// GetKind returns the document kind.
func (h *Header) GetKind() Kind {
	return h.Kind
}

// GetMetadata returns the metadata map, which may be nil.
func (h *Header) GetMetadata() map[string]string {
	return h.Metadata
}

// Timestamp returns the time recorded by Init.
func (h *Header) Timestamp() (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339, h.Metadata[MetadataTimestamp])
	return ts, err == nil
}
