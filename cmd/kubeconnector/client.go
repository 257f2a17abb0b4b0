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
	"fmt"

	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/rest"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/inventory"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// newConnector is replaced in tests with a connector backed by a fake client.
var newConnector = func(rcg genericclioptions.RESTClientGetter) (connector.Connector, error) {
	kubeConfig, err := newKubeConfig(rcg)
	if err != nil {
		return nil, err
	}

	return connector.NewForConfig(kubeConfig, fieldOwner().Field)
}

func newResourceManager(rcg genericclioptions.RESTClientGetter) (*resmgr.ResourceManager, error) {
	conn, err := newConnector(rcg)
	if err != nil {
		return nil, fmt.Errorf("client init failed: %w", err)
	}

	return resmgr.NewResourceManager(conn, cfg.ManagerOptions()), nil
}

func newInventoryStorage(resMgr *resmgr.ResourceManager) *inventory.Storage {
	return &inventory.Storage{
		Manager: resMgr,
		Owner:   resMgr.Owner(),
	}
}

func newKubeConfig(rcg genericclioptions.RESTClientGetter) (*rest.Config, error) {
	cfg, err := rcg.ToRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("kubeconfig load failed: %w", err)
	}

	cfg.QPS = 50
	cfg.Burst = 100

	return cfg, nil
}
