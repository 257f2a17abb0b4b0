/*
Copyright 2021 Stefan Prodan
Copyright 2021 The Flux authors

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

package main

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/inventory"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// applyInventory records the objects in the named inventory, when prune is set
// the objects recorded by the previous apply and not present anymore are deleted.
func applyInventory(ctx context.Context, resMgr *resmgr.ResourceManager, name string, objects []client.Object, prune bool) error {
	invStorage := newInventoryStorage(resMgr)

	newInventory := inventory.NewInventory(name, *kubeconfigArgs.Namespace)
	if err := newInventory.AddObjects(objects); err != nil {
		return fmt.Errorf("creating inventory failed, error: %w", err)
	}

	var staleObjects []client.Object
	if prune {
		stale, err := invStorage.GetInventoryStaleObjects(ctx, newInventory)
		if err != nil {
			return fmt.Errorf("inventory query failed, error: %w", err)
		}
		staleObjects = stale
	}

	if err := invStorage.ApplyInventory(ctx, newInventory); err != nil {
		return fmt.Errorf("inventory apply failed, error: %w", err)
	}
	logger.Printf("ConfigMap/%s/%s%s inventory updated", newInventory.Namespace, inventory.InventoryPrefix, newInventory.Name)

	if len(staleObjects) > 0 {
		changeSet, err := resMgr.DeleteAll(ctx, staleObjects)
		if err != nil {
			return fmt.Errorf("prune failed, error: %w", err)
		}
		for _, change := range changeSet.Entries {
			logger.Println(change.String())
		}
	}

	return nil
}
