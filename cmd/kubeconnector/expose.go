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

var exposeCmd = &cobra.Command{
	Use:   "expose",
	Short: "Expose creates Services for workloads.",
}

var exposeDeploymentCmd = &cobra.Command{
	Use:     "deployment [name]",
	Aliases: []string{"deploy"},
	Short:   "Expose creates a Service named <deployment>-<port> that selects the Deployment pods.",
	Example: `  # Expose the podinfo deployment on port 9898
  kubeconnector expose deployment podinfo --port 9898 -n apps
`,
	RunE: runExposeDeploymentCmd,
}

type exposeDeploymentFlags struct {
	ports []int32
}

var exposeDeploymentArgs exposeDeploymentFlags

func init() {
	exposeDeploymentCmd.Flags().Int32SliceVar(&exposeDeploymentArgs.ports, "port", nil, "The TCP ports to expose.")

	exposeCmd.AddCommand(exposeDeploymentCmd)
	rootCmd.AddCommand(exposeCmd)
}

func runExposeDeploymentCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify a deployment name")
	}
	if len(exposeDeploymentArgs.ports) == 0 {
		return fmt.Errorf("you must specify at least one port with --port")
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

	for _, port := range exposeDeploymentArgs.ports {
		svc, err := deployment.Expose(ctx, port)
		if err != nil {
			return err
		}
		logger.Println(`✓`, svc.Identity(), "exposes port", port)
	}

	return nil
}
