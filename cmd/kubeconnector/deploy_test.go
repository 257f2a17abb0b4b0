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
	"testing"

	. "github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

func TestDeploy(t *testing.T) {
	g := NewWithT(t)
	id := "deploy-" + randStringRunes(5)
	key := client.ObjectKey{Namespace: id, Name: id}

	t.Run("creates deployment and service", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf(
			"deploy %[1]s -n %[1]s --image nginx:1.21 --port 8080 --env MODE=prod --secret-env TOKEN=%[1]s-token:token --expose 8080 --wait",
			id,
		))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp(fmt.Sprintf("Deployment/%[1]s/%[1]s created", id)))
		g.Expect(output).To(MatchRegexp(fmt.Sprintf("Service/%[1]s/%[1]s-8080 created", id)))
		g.Expect(output).To(MatchRegexp("ready"))

		deployment := &appsv1.Deployment{}
		g.Expect(testClient.Get(context.Background(), key, deployment)).To(Succeed())
		g.Expect(*deployment.Spec.Replicas).To(Equal(int32(1)))
		g.Expect(deployment.Spec.Selector.MatchLabels).To(Equal(map[string]string{"app": id}))
		g.Expect(deployment.Spec.Template.Labels).To(Equal(map[string]string{"app": id}))

		container := deployment.Spec.Template.Spec.Containers[0]
		g.Expect(container.Name).To(Equal(id))
		g.Expect(container.Image).To(Equal("nginx:1.21"))
		g.Expect(container.Ports).To(ConsistOf(corev1.ContainerPort{ContainerPort: 8080, Protocol: corev1.ProtocolTCP}))
		g.Expect(container.Env).To(HaveLen(2))
		g.Expect(container.Env[0]).To(Equal(corev1.EnvVar{Name: "MODE", Value: "prod"}))
		g.Expect(container.Env[1].ValueFrom.SecretKeyRef.Name).To(Equal(id + "-token"))
		g.Expect(container.Env[1].ValueFrom.SecretKeyRef.Key).To(Equal("token"))

		svc := &corev1.Service{}
		g.Expect(testClient.Get(context.Background(), client.ObjectKey{Namespace: id, Name: id + "-8080"}, svc)).To(Succeed())
		g.Expect(svc.Spec.Selector).To(Equal(map[string]string{"app": id}))
		g.Expect(svc.Spec.Ports).To(HaveLen(1))
		g.Expect(svc.Spec.Ports[0].Port).To(Equal(int32(8080)))
		g.Expect(svc.Spec.Ports[0].Protocol).To(Equal(corev1.ProtocolTCP))
	})

	t.Run("leaves unchanged objects alone", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf(
			"deploy %[1]s -n %[1]s --image nginx:1.21 --port 8080 --env MODE=prod --secret-env TOKEN=%[1]s-token:token --expose 8080",
			id,
		))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp(fmt.Sprintf("Deployment/%[1]s/%[1]s unchanged", id)))
		g.Expect(output).To(MatchRegexp(fmt.Sprintf("Service/%[1]s/%[1]s-8080 unchanged", id)))
	})

	t.Run("updates drifted deployment", func(t *testing.T) {
		output, err := executeCommand(fmt.Sprintf(
			"deploy %[1]s -n %[1]s --image nginx:1.22 --port 8080 --env MODE=prod --secret-env TOKEN=%[1]s-token:token --replicas 2",
			id,
		))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)
		g.Expect(output).To(MatchRegexp(fmt.Sprintf("Deployment/%[1]s/%[1]s configured", id)))

		deployment := &appsv1.Deployment{}
		g.Expect(testClient.Get(context.Background(), key, deployment)).To(Succeed())
		g.Expect(deployment.Spec.Template.Spec.Containers[0].Image).To(Equal("nginx:1.22"))
		g.Expect(*deployment.Spec.Replicas).To(Equal(int32(2)))
	})

	t.Run("rejects invalid env", func(t *testing.T) {
		_, err := executeCommand(fmt.Sprintf("deploy %[1]s -n %[1]s --image nginx:1.21 --env MODE", id))
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("key=value"))
	})

	t.Run("requires an image", func(t *testing.T) {
		_, err := executeCommand(fmt.Sprintf("deploy %[1]s -n %[1]s", id))
		g.Expect(err).To(HaveOccurred())
	})
}

func TestDeploy_DryRun(t *testing.T) {
	g := NewWithT(t)
	id := "dry-" + randStringRunes(5)

	output, err := executeCommand(fmt.Sprintf(
		"deploy %[1]s -n %[1]s --image nginx:1.21 --port 80 --expose 80 --secret-volume %[1]s-tls=/etc/tls --recreate --dry-run",
		id,
	))
	g.Expect(err).NotTo(HaveOccurred())
	t.Logf("\n%s", output)
	g.Expect(output).To(ContainSubstring("kind: Deployment"))
	g.Expect(output).To(ContainSubstring("kind: Service"))
	g.Expect(output).To(ContainSubstring(fmt.Sprintf("name: %s-80", id)))
	g.Expect(output).To(ContainSubstring("mountPath: /etc/tls"))
	g.Expect(output).To(ContainSubstring("type: Recreate"))

	err = testClient.Get(context.Background(), client.ObjectKey{Namespace: id, Name: id}, &appsv1.Deployment{})
	g.Expect(apierrors.IsNotFound(err)).To(BeTrue())
}
