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
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

var getInventoryCmd = &cobra.Command{
	Use:     "inventory [name]",
	Aliases: []string{"inv"},
	Short:   "Get inventory prints the objects recorded in the given inventory.",
	RunE:    runGetInventoryCmd,
}

func init() {
	getCmd.AddCommand(getInventoryCmd)
}

func runGetInventoryCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify an inventory name")
	}
	name := args[0]

	resMgr, err := newResourceManager(kubeconfigArgs)
	if err != nil {
		return err
	}
	invStorage := newInventoryStorage(resMgr)

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	inv := inventory.NewInventory(name, *kubeconfigArgs.Namespace)
	if err := invStorage.GetInventory(ctx, inv); err != nil {
		return err
	}

	objects, err := inv.ListObjects()
	if err != nil {
		return err
	}

	var rows [][]string
	rf := &resmgr.ResourceFormatter{}
	for _, object := range objects {
		rows = append(rows, []string{rf.Object(object), object.GetObjectKind().GroupVersionKind().Version})
	}
	printTable(rootCmd.OutOrStdout(), []string{"object", "version"}, rows)
	return nil
}
