/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fluxcd/pkg/ssa"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

const (
	InventoryKindName = "inventory"
	InventoryPrefix   = "inv-"
	nameLabelKey      = "app.kubernetes.io/name"
	componentLabelKey = "app.kubernetes.io/component"
	createdByLabelKey = "app.kubernetes.io/created-by"
)

// Storage manages the Inventory in-cluster storage.
type Storage struct {
	Manager *resmgr.ResourceManager
	Owner   ssa.Owner
}

// GetOwnerLabels returns the inventory storage common labels.
func (m *Storage) GetOwnerLabels() client.MatchingLabels {
	return client.MatchingLabels{
		componentLabelKey: InventoryKindName,
		createdByLabelKey: m.Owner.Field,
	}
}

// ApplyInventory creates or updates the storage object for the given inventory.
func (m *Storage) ApplyInventory(ctx context.Context, i *Inventory) error {
	data, err := json.Marshal(i.Entries)
	if err != nil {
		return err
	}

	cm := m.newConfigMap(i.Name, i.Namespace)
	cm.Annotations = map[string]string{
		m.Owner.Group + "/last-applied-time": time.Now().UTC().Format(time.RFC3339),
	}
	cm.Data = map[string]string{
		InventoryKindName: string(data),
	}

	_, err = m.Manager.Merge(ctx, cm, m.Manager.DefaultMergeOptions())
	return err
}

// GetInventory retrieves the entries from the storage for the given inventory name and namespace.
func (m *Storage) GetInventory(ctx context.Context, i *Inventory) error {
	cm := m.newConfigMap(i.Name, i.Namespace)

	found, err := m.Manager.Find(ctx, cm)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("ConfigMap/%s/%s: %w", cm.Namespace, cm.Name, connector.ErrNotFound)
	}

	if _, ok := cm.Data[InventoryKindName]; !ok {
		return fmt.Errorf("inventory data not found in ConfigMap/%s/%s", cm.Namespace, cm.Name)
	}

	var entries []Entry
	err = json.Unmarshal([]byte(cm.Data[InventoryKindName]), &entries)
	if err != nil {
		return err
	}

	i.Entries = entries
	return nil
}

// ListInventories returns the names and last applied time of the inventories stored in the namespace.
func (m *Storage) ListInventories(ctx context.Context, namespace string) ([]*Inventory, []string, error) {
	list := &corev1.ConfigMapList{}
	if err := m.Manager.List(ctx, list, namespace, m.GetOwnerLabels()); err != nil {
		return nil, nil, err
	}

	var inventories []*Inventory
	var timestamps []string
	for _, cm := range list.Items {
		name, ok := cm.Labels[nameLabelKey]
		if !ok {
			continue
		}
		i := NewInventory(name, cm.Namespace)
		if err := json.Unmarshal([]byte(cm.Data[InventoryKindName]), &i.Entries); err != nil {
			return nil, nil, fmt.Errorf("ConfigMap/%s/%s decode failed, error: %w", cm.Namespace, cm.Name, err)
		}
		inventories = append(inventories, i)
		timestamps = append(timestamps, cm.Annotations[m.Owner.Group+"/last-applied-time"])
	}

	return inventories, timestamps, nil
}

// DeleteInventory removes the storage for the given inventory name and namespace.
func (m *Storage) DeleteInventory(ctx context.Context, i *Inventory) error {
	cm := m.newConfigMap(i.Name, i.Namespace)

	if _, err := m.Manager.Delete(ctx, cm); err != nil {
		return fmt.Errorf("failed to delete ConfigMap/%s/%s, error: %w", cm.Namespace, cm.Name, err)
	}
	return nil
}

// GetInventoryStaleObjects returns the list of objects subject to pruning.
func (m *Storage) GetInventoryStaleObjects(ctx context.Context, i *Inventory) ([]client.Object, error) {
	existingInventory := NewInventory(i.Name, i.Namespace)
	if err := m.GetInventory(ctx, existingInventory); err != nil {
		if errors.Is(err, connector.ErrNotFound) {
			return []client.Object{}, nil
		}
		return nil, err
	}

	return existingInventory.Diff(i)
}

func (m *Storage) newConfigMap(name, namespace string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "ConfigMap",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      InventoryPrefix + name,
			Namespace: namespace,
			Labels: map[string]string{
				nameLabelKey:      name,
				componentLabelKey: InventoryKindName,
				createdByLabelKey: m.Owner.Field,
			},
		},
	}
}
