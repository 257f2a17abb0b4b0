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

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait blocks until workloads become ready.",
}

var waitDeploymentCmd = &cobra.Command{
	Use:     "deployment [name]",
	Aliases: []string{"deploy"},
	Short:   "Wait polls the Deployment until its latest generation is observed and all replicas are available.",
	Example: `  # Wait up to two minutes for podinfo to become ready
  kubeconnector wait deployment podinfo -n apps --timeout 2m
`,
	RunE: runWaitDeploymentCmd,
}

func init() {
	waitCmd.AddCommand(waitDeploymentCmd)
	rootCmd.AddCommand(waitCmd)
}

func runWaitDeploymentCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a deployment name")
	}

	timeout := rootArgs.timeout
	if !cmd.Flags().Changed("timeout") {
		timeout = cfg.WaitTimeout(timeout)
	}

	resMgr, err := newResourceManager(kubeconfigArgs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	deployment, err := findDeployment(ctx, resMgr, args[0])
	if err != nil {
		return err
	}

	logger.Println("waiting for the deployment to become ready...")
	if err := deployment.Ready(ctx, timeout); err != nil {
		return err
	}
	logger.Println(`✓`, deployment.Identity(), "ready")

	return nil
}
