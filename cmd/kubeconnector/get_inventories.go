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
)

var getInventoriesCmd = &cobra.Command{
	Use:   "inventories",
	Short: "Get prints the name, size and last applied time of all inventories in the given namespace.",
	RunE:  runGetInventoriesCmd,
}

func init() {
	getCmd.AddCommand(getInventoriesCmd)
}

func runGetInventoriesCmd(cmd *cobra.Command, args []string) error {
	resMgr, err := newResourceManager(kubeconfigArgs)
	if err != nil {
		return err
	}
	invStorage := newInventoryStorage(resMgr)

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	inventories, timestamps, err := invStorage.ListInventories(ctx, *kubeconfigArgs.Namespace)
	if err != nil {
		return err
	}

	var rows [][]string
	for i, inv := range inventories {
		rows = append(rows, []string{inv.Name, fmt.Sprintf("%v", len(inv.Entries)), timestamps[i]})
	}
	printTable(rootCmd.OutOrStdout(), []string{"name", "entries", "last applied"}, rows)
	return nil
}
