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
	"sigs.k8s.io/controller-runtime/pkg/client"
)

var deleteDeploymentCmd = &cobra.Command{
	Use:     "deployment [name]",
	Aliases: []string{"deploy"},
	Short:   "Delete the Deployment and the Services created for its ports.",
	Example: `  # Delete podinfo and the podinfo-9898 service
  kubeconnector delete deployment podinfo --port 9898 -n apps
`,
	RunE: runDeleteDeploymentCmd,
}

type deleteDeploymentFlags struct {
	ports []int32
	wait  bool
}

var deleteDeploymentArgs deleteDeploymentFlags

func init() {
	deleteDeploymentCmd.Flags().Int32SliceVar(&deleteDeploymentArgs.ports, "port", nil, "Delete the Services named <deployment>-<port>.")
	deleteDeploymentCmd.Flags().BoolVar(&deleteDeploymentArgs.wait, "wait", false, "Wait for the deleted objects to be terminated.")

	deleteCmd.AddCommand(deleteDeploymentCmd)
}

func runDeleteDeploymentCmd(cmd *cobra.Command, args []string) error {
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

	objects := []client.Object{deployment.Model()}
	for _, port := range deleteDeploymentArgs.ports {
		objects = append(objects, deployment.Service(port).Model())
	}

	changeSet, err := resMgr.DeleteAll(ctx, objects)
	if err != nil {
		return err
	}
	for _, change := range changeSet.Entries {
		logger.Println(change.String())
	}

	if deleteDeploymentArgs.wait {
		logger.Println("waiting for resources to be terminated...")
		opts := resMgr.DefaultWaitOptions()
		if err := resMgr.WaitForTermination(ctx, objects, opts.Interval, rootArgs.timeout); err != nil {
			return err
		}
		logger.Println("all resources have been deleted")
	}

	return nil
}
