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
	"sort"
	"testing"

	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

func TestApplyOrder(t *testing.T) {
	newObjects := func() []client.Object {
		return []client.Object{
			newTestDeployment("default", "web", "nginx"),
			&corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web"}},
			&corev1.Service{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "b"}},
			&corev1.Secret{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "a"}},
			&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		}
	}
	kinds := func(objects []client.Object) []string {
		var result []string
		for _, o := range objects {
			result = append(result, connector.IdentityOf(o).Kind)
		}
		return result
	}

	t.Run("built-in ranking", func(t *testing.T) {
		g := NewWithT(t)
		objects := newObjects()
		sort.Sort(ApplyOrder{Objects: objects})
		g.Expect(kinds(objects)).To(Equal([]string{"Namespace", "Secret", "Service", "ConfigMap", "Deployment"}))
	})

	t.Run("kind order overrides", func(t *testing.T) {
		g := NewWithT(t)
		objects := newObjects()
		order := KindOrder{First: []string{"ConfigMap"}, Last: []string{"Namespace"}}
		sort.Sort(ApplyOrder{Objects: objects, Order: order})
		g.Expect(kinds(objects)).To(Equal([]string{"ConfigMap", "Secret", "Service", "Deployment", "Namespace"}))
	})
}
