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
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/connector/connectortest"
)

func TestDeploymentReady(t *testing.T) {
	tests := []struct {
		name                string
		generation          int64
		observedGeneration  int64
		unavailableReplicas int32
		ready               bool
	}{
		{name: "observed and available", generation: 3, observedGeneration: 3, unavailableReplicas: 0, ready: true},
		{name: "observed and unavailable", generation: 3, observedGeneration: 3, unavailableReplicas: 1, ready: false},
		{name: "not observed and available", generation: 3, observedGeneration: 2, unavailableReplicas: 0, ready: false},
		{name: "not observed and unavailable", generation: 3, observedGeneration: 2, unavailableReplicas: 2, ready: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			d := newTestDeployment("default", "web", "nginx")
			d.Generation = tt.generation
			d.Status.ObservedGeneration = tt.observedGeneration
			d.Status.UnavailableReplicas = tt.unavailableReplicas
			g.Expect(DeploymentReady(d)).To(Equal(tt.ready))
		})
	}
}

func TestWait_Progression(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	name := generateName("progress")
	existing := newTestDeployment("default", name, "nginx:1.21")
	existing.Generation = 3
	existing.Status.ObservedGeneration = 2
	existing.Status.UnavailableReplicas = 1
	manager, cluster := newTestManager(existing)

	polls := 0
	cluster.Controller = func(obj client.Object) {
		d := obj.(*appsv1.Deployment)
		polls++
		switch polls {
		case 2:
			d.Status.ObservedGeneration = 3
		case 3:
			d.Status.UnavailableReplicas = 0
		}
	}

	err := manager.Wait(ctx, newTestDeployment("default", name, "nginx:1.21"), WaitOptions{
		Interval: 10 * time.Millisecond,
		Timeout:  5 * time.Second,
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cluster.Count(connectortest.VerbFind)).To(Equal(3))
}

func TestWait_Timeout(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	name := generateName("timeout")
	existing := newTestDeployment("default", name, "nginx:1.21")
	existing.Generation = 2
	existing.Status.ObservedGeneration = 1
	manager, cluster := newTestManager(existing)

	start := time.Now()
	err := manager.Wait(ctx, existing, WaitOptions{
		Interval: 20 * time.Millisecond,
		Timeout:  100 * time.Millisecond,
	})
	g.Expect(errors.Is(err, connector.ErrTimeout)).To(BeTrue())
	g.Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))

	finds := cluster.Count(connectortest.VerbFind)
	time.Sleep(60 * time.Millisecond)
	g.Expect(cluster.Count(connectortest.VerbFind)).To(BeNumerically("<=", finds+1))
}

func TestWait_Interrupted(t *testing.T) {
	g := NewWithT(t)

	name := generateName("interrupted")
	existing := newTestDeployment("default", name, "nginx:1.21")
	existing.Status.UnavailableReplicas = 1
	manager, _ := newTestManager(existing)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := manager.Wait(ctx, existing, WaitOptions{Interval: 10 * time.Millisecond, Timeout: time.Minute})
	g.Expect(errors.Is(err, connector.ErrInterrupted)).To(BeTrue())
}

func TestWait_ProcessingError(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch failure", func(t *testing.T) {
		g := NewWithT(t)
		existing := newTestDeployment("default", generateName("failing"), "nginx:1.21")
		manager, cluster := newTestManager(existing)
		cluster.FindError = errors.New("connection refused")

		err := manager.Wait(ctx, existing, WaitOptions{Interval: 10 * time.Millisecond, Timeout: time.Second})
		g.Expect(errors.Is(err, connector.ErrProcessing)).To(BeTrue())
		g.Expect(err.Error()).To(ContainSubstring("connection refused"))
	})

	t.Run("object not found", func(t *testing.T) {
		g := NewWithT(t)
		manager, _ := newTestManager()

		err := manager.Wait(ctx, newTestDeployment("default", "missing", "nginx"), WaitOptions{Timeout: time.Second})
		g.Expect(errors.Is(err, connector.ErrProcessing)).To(BeTrue())
	})
}

func TestWait_KStatus(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	secret := &corev1.Secret{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: generateName("secret")}}
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: generateName("pod")},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
		},
	}
	manager, _ := newTestManager(secret, pod)

	g.Expect(manager.Wait(ctx, secret, WaitOptions{Interval: 10 * time.Millisecond, Timeout: time.Second})).To(Succeed())
	g.Expect(manager.Wait(ctx, pod, WaitOptions{Interval: 10 * time.Millisecond, Timeout: time.Second})).To(Succeed())

	pending := pod.DeepCopy()
	pending.Status = corev1.PodStatus{Phase: corev1.PodPending}
	ready, err := KStatusReady(pending)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ready).To(BeFalse())
}

func TestWaitForTermination(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	existing := newTestDeployment("default", generateName("terminate"), "nginx:1.21")
	manager, cluster := newTestManager(existing)

	time.AfterFunc(30*time.Millisecond, func() {
		_ = cluster.Delete(ctx, existing)
	})

	err := manager.WaitForTermination(ctx, []client.Object{existing}, 10*time.Millisecond, 5*time.Second)
	g.Expect(err).NotTo(HaveOccurred())

	cluster.Add(existing)
	err = manager.WaitForTermination(ctx, []client.Object{existing}, 10*time.Millisecond, 50*time.Millisecond)
	g.Expect(errors.Is(err, connector.ErrTimeout)).To(BeTrue())
}
