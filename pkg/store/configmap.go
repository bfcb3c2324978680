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
	"sort"
	"strings"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/header"
	"github.com/millwork-dev/millwork/pkg/k8s/client"
	"github.com/millwork-dev/millwork/pkg/machine"
	"github.com/millwork-dev/millwork/pkg/serializer"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/utils/ptr"
)

// LabelMachine carries the machine ID on snapshot ConfigMaps.
const LabelMachine = "millwork.dev/machine"

// ConfigMapPrefix is prepended to machine IDs to form ConfigMap names.
const ConfigMapPrefix = "millwork-"

// ConfigMapStore keeps one ConfigMap per machine.
type ConfigMapStore struct {
	client    client.Interface
	namespace string
	format    serializer.Format
}

// NewConfigMapStore returns a store writing YAML snapshots into namespace.
func NewConfigMapStore(cs client.Interface, namespace string) *ConfigMapStore {
	return &ConfigMapStore{
		client:    cs,
		namespace: namespace,
		format:    serializer.FormatYAML,
	}
}

// Namespace returns the namespace snapshots are kept in.
func (s *ConfigMapStore) Namespace() string {
	return s.namespace
}

func configMapName(id string) (string, error) {
	name := ConfigMapPrefix + id
	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("machine id %q cannot be stored in a ConfigMap", id),
			map[string]any{"reasons": errs})
	}
	return name, nil
}

func (s *ConfigMapStore) dataKey() string {
	return serializer.DataKey(header.KindMachineSnapshot.String(), s.format)
}

// Save creates or updates the ConfigMap for snap.
func (s *ConfigMapStore) Save(ctx context.Context, snap *machine.Snapshot) error {
	if snap == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "snapshot is nil")
	}
	if err := validateID(snap.ID); err != nil {
		return err
	}
	name, err := configMapName(snap.ID)
	if err != nil {
		return err
	}

	data, kind, version, err := serializer.ConfigMapData(s.format, snap)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to serialize snapshot", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	cms := s.client.CoreV1().ConfigMaps(s.namespace)
	existing, err := cms.Get(ctx, name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: s.namespace,
				Labels:    snapshotLabels(snap.ID, kind, version),
			},
			Immutable: ptr.To(false),
			Data:      data,
		}
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{FieldManager: serializer.FieldManager}); err != nil {
			return errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to create ConfigMap %s/%s", s.namespace, name), err)
		}
	case err != nil:
		return errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to get ConfigMap %s/%s", s.namespace, name), err)
	default:
		updated := existing.DeepCopy()
		if updated.Labels == nil {
			updated.Labels = map[string]string{}
		}
		for k, v := range snapshotLabels(snap.ID, kind, version) {
			updated.Labels[k] = v
		}
		updated.Data = data
		if _, err := cms.Update(ctx, updated, metav1.UpdateOptions{FieldManager: serializer.FieldManager}); err != nil {
			return errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to update ConfigMap %s/%s", s.namespace, name), err)
		}
	}

	slog.Debug("snapshot saved", "machine", snap.ID, "namespace", s.namespace, "configmap", name)
	return nil
}

func snapshotLabels(id, kind, version string) map[string]string {
	return map[string]string{
		serializer.LabelName:      defaults.Namespace,
		serializer.LabelComponent: labelValue(strings.ToLower(kind)),
		serializer.LabelVersion:   labelValue(version),
		LabelMachine:              labelValue(id),
	}
}

// labelValue drops values Kubernetes would reject as label values.
func labelValue(v string) string {
	if len(validation.IsValidLabelValue(v)) > 0 {
		return ""
	}
	return v
}

// Load reads the snapshot for id.
func (s *ConfigMapStore) Load(ctx context.Context, id string) (*machine.Snapshot, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	name, err := configMapName(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "snapshot not found",
			map[string]any{"machine": id, "namespace": s.namespace})
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to get ConfigMap %s/%s", s.namespace, name), err)
	}

	format := serializer.Format(cm.Data["format"])
	if format.IsUnknown() || format == serializer.FormatTable {
		format = s.format
	}
	raw, ok := cm.Data[serializer.DataKey(header.KindMachineSnapshot.String(), format)]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "ConfigMap holds no snapshot",
			map[string]any{"machine": id, "key": s.dataKey()})
	}

	var snap machine.Snapshot
	if err := serializer.Unmarshal(format, []byte(raw), &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to decode snapshot %s", id), err)
	}
	return &snap, nil
}

// List returns the machine IDs with stored snapshots.
func (s *ConfigMapStore) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	selector := labels.SelectorFromSet(labels.Set{
		serializer.LabelName:      defaults.Namespace,
		serializer.LabelComponent: strings.ToLower(header.KindMachineSnapshot.String()),
	})
	list, err := s.client.CoreV1().ConfigMaps(s.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector.String(),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to list snapshot ConfigMaps", err)
	}

	ids := make([]string, 0, len(list.Items))
	for _, cm := range list.Items {
		if id := cm.Labels[LabelMachine]; id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the ConfigMap for id. Deleting a missing snapshot is not an error.
func (s *ConfigMapStore) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	name, err := configMapName(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	err = s.client.CoreV1().ConfigMaps(s.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to delete ConfigMap %s/%s", s.namespace, name), err)
	}
	return nil
}
