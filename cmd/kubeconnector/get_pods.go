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
	"strconv"

	"github.com/spf13/cobra"
)

var getPodsCmd = &cobra.Command{
	Use:   "pods [deployment]",
	Short: "Get pods prints the pods selected by the given Deployment.",
	RunE:  runGetPodsCmd,
}

func init() {
	getCmd.AddCommand(getPodsCmd)
}

func runGetPodsCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a deployment name")
	}

	resMgr, err := newResourceManager(kubeconfigArgs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	deployment, err := findDeployment(ctx, resMgr, args[0])
	if err != nil {
		return err
	}

	pods, err := deployment.Pods(ctx)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, pod := range pods {
		rows = append(rows, []string{
			pod.Metadata().Name,
			strconv.FormatBool(pod.IsReady()),
			string(pod.Phase()),
			strconv.Itoa(int(pod.Restarts())),
			pod.NodeName(),
		})
	}
	printTable(rootCmd.OutOrStdout(), []string{"name", "ready", "status", "restarts", "node"}, rows)
	return nil
}
