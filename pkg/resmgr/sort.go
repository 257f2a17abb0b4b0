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

package resmgr

import (
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

// KindOrder overrides the built-in ranking of kinds. Kinds listed in First
// are merged first and deleted last, kinds listed in Last are merged last and deleted first.
type KindOrder struct {
	First []string
	Last  []string
}

func (o KindOrder) rank(kind string) int {
	for i, k := range o.First {
		if strings.EqualFold(k, kind) {
			return i - len(o.First)
		}
	}
	for i, k := range o.Last {
		if strings.EqualFold(k, kind) {
			return rankOfKind("") + 1 + i
		}
	}
	return rankOfKind(kind)
}

// ApplyOrder implements the Sort interface for Kubernetes objects.
type ApplyOrder struct {
	Objects []client.Object
	Order   KindOrder
}

func (a ApplyOrder) Len() int {
	return len(a.Objects)
}

func (a ApplyOrder) Swap(i, j int) {
	a.Objects[i], a.Objects[j] = a.Objects[j], a.Objects[i]
}

func (a ApplyOrder) Less(i, j int) bool {
	ki := connector.IdentityOf(a.Objects[i]).Kind
	ni := a.Objects[i].GetName()
	kj := connector.IdentityOf(a.Objects[j]).Kind
	nj := a.Objects[j].GetName()
	ranki, rankj := a.Order.rank(ki), a.Order.rank(kj)
	if ranki == rankj {
		return ni < nj
	}
	return ranki < rankj
}

// rankOfKind returns an int denoting the position of the given kind
// in the partial ordering of Kubernetes resources, according to which
// kinds depend on which (derived by hand).
func rankOfKind(kind string) int {
	switch strings.ToLower(kind) {
	// API extensions
	case "customresourcedefinition":
		return 0
	// Global objects
	case "namespace", "clusterrolebinding", "clusterrole":
		return 1
	// Namespaced objects
	case "serviceaccount", "role", "rolebinding", "service", "endpoint", "ingress":
		return 2
	// Namespaced objects
	case "resourcequota", "limitrange", "secret", "configmap", "persistentvolume", "persistentvolumeclaim":
		return 2
	// Workload objects
	case "daemonset", "deployment", "job", "cronjob", "statefulset", "replicationcontroller", "replicaset", "pod":
		return 3
	default:
		return 4
	}
}
