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

	"github.com/stefanprodan/kubeconnector/pkg/builder"
	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// findDeployment returns a facade over the in-cluster deployment with the given name.
func findDeployment(ctx context.Context, resMgr *resmgr.ResourceManager, name string) (*builder.Deployment, error) {
	deployment := builder.NewDeployment(resMgr).
		Namespace(*kubeconfigArgs.Namespace).
		Name(name)

	found, err := deployment.Find(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", deployment.Identity(), connector.ErrNotFound)
	}
	return deployment, nil
}
