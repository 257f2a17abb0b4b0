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

package builder

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
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

func newTestManager(objects ...client.Object) (*resmgr.ResourceManager, *connectortest.Cluster) {
	cluster := connectortest.New(objects...)
	opts := resmgr.DefaultOptions()
	opts.WaitInterval = 10 * time.Millisecond
	return resmgr.NewResourceManager(cluster, opts), cluster
}

func newWebDeployment(manager *resmgr.ResourceManager) *Deployment {
	return NewDeployment(manager).
		Namespace("apps").
		Name("web").
		Selector("app", "web").
		Replicas(3).
		Containers(
			NewContainer("nginx").
				Image("nginx:1.21").
				TCPPort(8080).
				ReadinessProbeTCP(8080, 5, 10, 3),
		)
}

func TestDeployment_Views(t *testing.T) {
	g := NewWithT(t)
	manager, _ := newTestManager()
	d := newWebDeployment(manager)

	nginx, err := d.Container("nginx")
	g.Expect(err).NotTo(HaveOccurred())

	d.Containers(NewContainer("sidecar").Image("busybox"), NewContainer("metrics").Image("exporter"))
	nginx.Image("nginx:1.22")

	containers := d.Spec().Template().PodSpec().ContainerList()
	g.Expect(containers).To(HaveLen(3))
	g.Expect(d.Model().Spec.Template.Spec.Containers[0].Image).To(Equal("nginx:1.22"))
	g.Expect(containers[0].Model().Image).To(Equal("nginx:1.22"))

	sidecar := NewContainer("late")
	d.Spec().Template().PodSpec().Containers(sidecar)
	sidecar.Args("--verbose")
	g.Expect(d.Model().Spec.Template.Spec.Containers[3].Args).To(Equal([]string{"--verbose"}))

	_, err = d.Container("missing")
	g.Expect(errors.Is(err, connector.ErrNotFound)).To(BeTrue())
}

func TestContainer_ReplacedSlots(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	manager, cluster := newTestManager()

	d := newWebDeployment(manager).
		Containers(NewContainer("sidecar").Image("busybox")).
		Volumes(NewVolume("cache").EmptyDir())
	_, err := d.Merge(ctx)
	g.Expect(err).NotTo(HaveOccurred())

	nginx, err := d.Container("nginx")
	g.Expect(err).NotTo(HaveOccurred())
	sidecar, err := d.Container("sidecar")
	g.Expect(err).NotTo(HaveOccurred())
	cache := d.Spec().Template().PodSpec().VolumeList()[0]

	cluster.Mutate("Deployment", "apps", "web", func(obj client.Object) {
		spec := &obj.(*appsv1.Deployment).Spec.Template.Spec
		spec.Containers = []corev1.Container{spec.Containers[1]}
		spec.Volumes = nil
	})
	found, err := d.Find(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeTrue())

	sidecar.Image("busybox:1.35")
	g.Expect(d.Model().Spec.Template.Spec.Containers).To(HaveLen(1))
	g.Expect(d.Model().Spec.Template.Spec.Containers[0].Image).To(Equal("busybox:1.35"))

	nginx.Image("nginx:1.22")
	g.Expect(nginx.Name()).To(Equal("nginx"))
	g.Expect(nginx.Model().Image).To(Equal("nginx:1.22"))
	g.Expect(d.Model().Spec.Template.Spec.Containers).To(HaveLen(1))

	cache.HostPath("/var/cache")
	g.Expect(cache.Name()).To(Equal("cache"))
	g.Expect(d.Model().Spec.Template.Spec.Volumes).To(BeEmpty())
}

func TestDeployment_Selector(t *testing.T) {
	g := NewWithT(t)
	manager, _ := newTestManager()

	d := NewDeployment(manager).Name("web").Selector("app", "web").Selector("tier", "frontend")
	for k, v := range d.Model().Spec.Selector.MatchLabels {
		g.Expect(d.Model().Spec.Template.Labels).To(HaveKeyWithValue(k, v))
	}
	g.Expect(d.Model().Spec.Selector.MatchLabels).To(HaveLen(2))
}

func TestContainer_Env(t *testing.T) {
	g := NewWithT(t)
	manager, _ := newTestManager()

	creds := NewSecret(manager).Namespace("apps").Name("creds")
	c := NewContainer("app").
		Env("LOG_LEVEL", "info").
		SecretEnv("TOKEN", "token", creds)

	env := c.Model().Env
	g.Expect(env).To(HaveLen(2))
	g.Expect(env[0].Value).To(Equal("info"))
	g.Expect(env[0].ValueFrom).To(BeNil())
	g.Expect(env[1].Value).To(BeEmpty())
	g.Expect(env[1].ValueFrom.SecretKeyRef.Name).To(Equal("creds"))
	g.Expect(env[1].ValueFrom.SecretKeyRef.Key).To(Equal("token"))

	c.Env("TOKEN", "literal")
	g.Expect(c.Model().Env).To(HaveLen(2))
	g.Expect(c.Model().Env[1].ValueFrom).To(BeNil())
}

func TestContainer_VolumeMount(t *testing.T) {
	g := NewWithT(t)
	manager, cluster := newTestManager()
	ctx := context.Background()

	config := NewVolume("config").ConfigMap("web-config")
	d := newWebDeployment(manager).Volumes(config)
	nginx, err := d.Container("nginx")
	g.Expect(err).NotTo(HaveOccurred())
	nginx.VolumeMount(config, "/etc/nginx/conf.d")

	g.Expect(nginx.Model().VolumeMounts).To(Equal([]corev1.VolumeMount{{Name: "config", MountPath: "/etc/nginx/conf.d"}}))
	_, err = d.Merge(ctx)
	g.Expect(err).NotTo(HaveOccurred())

	dangling := newWebDeployment(manager).Name("dangling")
	c, _ := dangling.Container("nginx")
	c.VolumeMount(NewVolume("data").EmptyDir(), "/data")
	_, err = dangling.Merge(ctx)
	var validationErr *connector.ValidationError
	g.Expect(errors.As(err, &validationErr)).To(BeTrue())
	g.Expect(cluster.Count(connectortest.VerbCreate)).To(Equal(1))
}

func TestDeployment_Expose(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	manager, cluster := newTestManager()

	d := newWebDeployment(manager)
	_, err := d.Merge(ctx)
	g.Expect(err).NotTo(HaveOccurred())

	svc, err := d.Expose(ctx, 8080)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(svc.Identity().String()).To(Equal("Service/apps/web-8080"))
	g.Expect(svc.Model().Spec.Selector).To(Equal(map[string]string{"app": "web"}))
	g.Expect(svc.Model().Spec.Ports).To(HaveLen(1))
	g.Expect(svc.Model().Spec.Ports[0].Port).To(BeEquivalentTo(8080))
	g.Expect(svc.Model().Spec.Ports[0].Protocol).To(Equal(corev1.ProtocolTCP))

	d.Selector("app", "changed")
	g.Expect(svc.Model().Spec.Selector).To(HaveKeyWithValue("app", "web"))

	again, err := newWebDeployment(manager).Expose(ctx, 8080)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(again.Model().ResourceVersion).To(Equal(svc.Model().ResourceVersion))
	g.Expect(cluster.Count(connectortest.VerbCreate)).To(Equal(2))
	g.Expect(cluster.Count(connectortest.VerbUpdate)).To(Equal(0))

	unmerged := d.Service(9090)
	found, err := unmerged.Find(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeFalse())
}

func TestDeployment_MergeAndReady(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	manager, cluster := newTestManager()

	cluster.Controller = func(obj client.Object) {
		d, ok := obj.(*appsv1.Deployment)
		if !ok {
			return
		}
		if d.Status.ObservedGeneration != d.Generation {
			d.Status.ObservedGeneration = d.Generation
			d.Status.UnavailableReplicas = *d.Spec.Replicas
			return
		}
		if d.Status.UnavailableReplicas > 0 {
			d.Status.UnavailableReplicas--
		}
	}

	d := newWebDeployment(manager)
	entry, err := d.Merge(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entry.Action).To(Equal(string(resmgr.CreatedAction)))
	g.Expect(d.Model().Generation).To(BeEquivalentTo(1))

	g.Expect(d.Ready(ctx, 5*time.Second)).To(Succeed())

	d.Spec().Strategy(Recreate())
	nginx, _ := d.Container("nginx")
	nginx.Image("nginx:1.22")
	entry, err = d.Merge(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entry.Action).To(Equal(string(resmgr.ConfiguredAction)))
	g.Expect(d.Model().Generation).To(BeEquivalentTo(2))
	g.Expect(d.Model().Spec.Strategy.Type).To(Equal(appsv1.RecreateDeploymentStrategyType))

	g.Expect(d.Ready(ctx, 5*time.Second)).To(Succeed())
}

func TestDeployment_ReadyTimeout(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	manager, _ := newTestManager()

	d := newWebDeployment(manager)
	_, err := d.Merge(ctx)
	g.Expect(err).NotTo(HaveOccurred())

	err = d.Ready(ctx, 50*time.Millisecond)
	g.Expect(errors.Is(err, connector.ErrTimeout)).To(BeTrue())
}

func TestDeployment_Delete(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	manager, cluster := newTestManager()

	d := newWebDeployment(manager)
	_, err := d.Merge(ctx)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(d.Delete(ctx)).To(Succeed())
	g.Expect(cluster.Len()).To(Equal(0))

	_, err = d.Merge(ctx)
	g.Expect(errors.Is(err, connector.ErrStale)).To(BeTrue())
	_, err = d.Find(ctx)
	g.Expect(errors.Is(err, connector.ErrStale)).To(BeTrue())
	g.Expect(errors.Is(d.Ready(ctx, time.Second), connector.ErrStale)).To(BeTrue())
}

func TestDeployment_Pods(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	pod := func(name string, labels map[string]string, ready corev1.ConditionStatus) *corev1.Pod {
		return &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Namespace: "apps", Name: name, Labels: labels},
			Status: corev1.PodStatus{
				Phase:      corev1.PodRunning,
				Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: ready}},
			},
		}
	}
	manager, _ := newTestManager(
		pod("web-1", map[string]string{"app": "web"}, corev1.ConditionTrue),
		pod("web-2", map[string]string{"app": "web"}, corev1.ConditionFalse),
		pod("db-1", map[string]string{"app": "db"}, corev1.ConditionTrue),
	)

	pods, err := newWebDeployment(manager).Pods(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(pods).To(HaveLen(2))
	g.Expect(pods[0].Metadata().Name).To(Equal("web-1"))
	g.Expect(pods[0].IsReady()).To(BeTrue())
	g.Expect(pods[1].IsReady()).To(BeFalse())
	g.Expect(pods[1].Phase()).To(Equal(corev1.PodRunning))

	_, err = NewDeployment(manager).Name("bare").Pods(ctx)
	g.Expect(err).To(HaveOccurred())
}

func TestDeployment_PodSpecOptions(t *testing.T) {
	g := NewWithT(t)
	manager, _ := newTestManager()

	pullSecret := NewSecret(manager).Name("registry").Type(corev1.SecretTypeDockerConfigJson)
	d := newWebDeployment(manager).
		HostNetwork().
		ServiceAccount("web").
		NodeSelector(map[string]string{"kubernetes.io/os": "linux"}).
		ImagePullSecret(pullSecret).
		ImagePullSecret(pullSecret).
		Strategy(RollingUpdate("25%", "1"))

	spec := d.Model().Spec.Template.Spec
	g.Expect(spec.HostNetwork).To(BeTrue())
	g.Expect(spec.ServiceAccountName).To(Equal("web"))
	g.Expect(spec.NodeSelector).To(HaveKeyWithValue("kubernetes.io/os", "linux"))
	g.Expect(spec.ImagePullSecrets).To(Equal([]corev1.LocalObjectReference{{Name: "registry"}}))
	g.Expect(d.Model().Spec.Strategy.RollingUpdate.MaxSurge.String()).To(Equal("25%"))
	g.Expect(d.Model().Spec.Strategy.RollingUpdate.MaxUnavailable.IntValue()).To(Equal(1))
	g.Expect(*d.Model().Spec.Replicas).To(BeEquivalentTo(3))
}

func TestSecret_Merge(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	manager, cluster := newTestManager()

	secret := NewSecret(manager).Namespace("apps").Name("creds").StringData("token", "t0k3n")
	entry, err := secret.Merge(ctx, connector.OwnerLabels(manager.Owner(), "web", "apps"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entry.Action).To(Equal(string(resmgr.CreatedAction)))
	g.Expect(secret.Metadata().Labels).To(HaveKeyWithValue(manager.Owner().Group+"/name", "web"))

	stored, ok := cluster.Get("Secret", "apps", "creds")
	g.Expect(ok).To(BeTrue())
	g.Expect(stored.(*corev1.Secret).StringData).To(HaveKeyWithValue("token", "t0k3n"))
}
