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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stefanprodan/kubeconnector/pkg/inventory"
)

var deleteInventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "Delete the Kubernetes objects in specified inventory including the inventory storage.",
	Example: ` kubeconnector delete inventory <inventory name> -n <inventory namespace>

  # Delete an inventory and its content
  kubeconnector delete inv podinfo -n apps
`,
	RunE: deleteInventoryCmdRun,
}

type deleteInventoryFlags struct {
	wait bool
}

var deleteInventoryArgs deleteInventoryFlags

func init() {
	deleteInventoryCmd.Flags().BoolVar(&deleteInventoryArgs.wait, "wait", true, "Wait for the deleted Kubernetes objects to be terminated.")

	deleteCmd.AddCommand(deleteInventoryCmd)
}

func deleteInventoryCmdRun(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify an inventory name")
	}
	name := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	logger.Println("retrieving inventory...")

	resMgr, err := newResourceManager(kubeconfigArgs)
	if err != nil {
		return err
	}
	invStorage := newInventoryStorage(resMgr)

	inv := inventory.NewInventory(name, *kubeconfigArgs.Namespace)
	if err := invStorage.GetInventory(ctx, inv); err != nil {
		return err
	}

	objects, err := inv.ListObjects()
	if err != nil {
		return err
	}

	logger.Println(fmt.Sprintf("deleting %v manifest(s)...", len(objects)))
	changeSet, err := resMgr.DeleteAll(ctx, objects)
	if err != nil {
		return err
	}
	for _, change := range changeSet.Entries {
		logger.Println(change.String())
	}

	if err := invStorage.DeleteInventory(ctx, inv); err != nil {
		return err
	}

	logger.Println(fmt.Sprintf("ConfigMap/%s/%s%s deleted", *kubeconfigArgs.Namespace, inventory.InventoryPrefix, name))

	if deleteInventoryArgs.wait {
		logger.Println("waiting for resources to be terminated...")
		opts := resMgr.DefaultWaitOptions()
		if err := resMgr.WaitForTermination(ctx, objects, opts.Interval, rootArgs.timeout); err != nil {
			return err
		}
		logger.Println("all resources have been deleted")
	}

	return nil
}
