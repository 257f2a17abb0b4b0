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
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// Deployment is a fluent facade over an apps/v1 Deployment.
type Deployment struct {
	handle
	model *appsv1.Deployment
}

// NewDeployment returns a facade over an empty deployment.
func NewDeployment(manager *resmgr.ResourceManager) *Deployment {
	return DeploymentFrom(manager, &appsv1.Deployment{})
}

// DeploymentFrom returns a facade over the given model.
func DeploymentFrom(manager *resmgr.ResourceManager, model *appsv1.Deployment) *Deployment {
	model.APIVersion = appsv1.SchemeGroupVersion.String()
	model.Kind = "Deployment"
	return &Deployment{
		handle: handle{manager: manager, object: model},
		model:  model,
	}
}

// Model returns the underlying deployment.
func (d *Deployment) Model() *appsv1.Deployment {
	return d.model
}

// Metadata returns the deployment's object metadata.
func (d *Deployment) Metadata() *metav1.ObjectMeta {
	return &d.model.ObjectMeta
}

// Namespace sets the deployment's namespace.
func (d *Deployment) Namespace(namespace string) *Deployment {
	d.model.Namespace = namespace
	return d
}

// Name sets the deployment's name.
func (d *Deployment) Name(name string) *Deployment {
	d.model.Name = name
	return d
}

// Label sets a metadata label on the deployment.
func (d *Deployment) Label(key, value string) *Deployment {
	setLabel(&d.model.ObjectMeta, key, value)
	return d
}

// Annotation sets a metadata annotation on the deployment.
func (d *Deployment) Annotation(key, value string) *Deployment {
	setAnnotation(&d.model.ObjectMeta, key, value)
	return d
}

// Spec returns a view over the deployment spec.
func (d *Deployment) Spec() *DeploymentSpec {
	return &DeploymentSpec{model: &d.model.Spec}
}

// Selector sets the label on both the selector and the pod template,
// which keeps the selector contained in the template labels.
func (d *Deployment) Selector(key, value string) *Deployment {
	spec := d.Spec()
	spec.Selector().MatchLabels[key] = value
	setLabel(&spec.model.Template.ObjectMeta, key, value)
	return d
}

// Replicas sets the desired number of pods.
func (d *Deployment) Replicas(replicas int32) *Deployment {
	d.Spec().Replicas(replicas)
	return d
}

// Strategy sets how old pods are replaced by new ones.
func (d *Deployment) Strategy(strategy appsv1.DeploymentStrategy) *Deployment {
	d.Spec().Strategy(strategy)
	return d
}

// Containers appends the containers to the pod template.
func (d *Deployment) Containers(containers ...*Container) *Deployment {
	d.podSpec().Containers(containers...)
	return d
}

// Volumes appends the volumes to the pod template.
func (d *Deployment) Volumes(volumes ...*Volume) *Deployment {
	d.podSpec().Volumes(volumes...)
	return d
}

// HostNetwork runs the pods in the node's network namespace.
func (d *Deployment) HostNetwork() *Deployment {
	d.podSpec().HostNetwork()
	return d
}

// ServiceAccount sets the service account the pods run as.
func (d *Deployment) ServiceAccount(name string) *Deployment {
	d.podSpec().ServiceAccount(name)
	return d
}

// NodeSelector adds the labels to the pod template's node selector.
func (d *Deployment) NodeSelector(selector map[string]string) *Deployment {
	d.podSpec().NodeSelector(selector)
	return d
}

// ImagePullSecret references the secret from the pod template.
func (d *Deployment) ImagePullSecret(secret *Secret) *Deployment {
	d.podSpec().ImagePullSecret(secret)
	return d
}

// Container returns the container with the given name, or connector.ErrNotFound.
func (d *Deployment) Container(name string) (*Container, error) {
	return d.podSpec().Container(name)
}

func (d *Deployment) podSpec() *PodSpec {
	return d.Spec().Template().PodSpec()
}

// Service returns a facade over a service named <deployment>-<port> that selects
// the deployment's pods and exposes the given TCP port. The service is not merged.
func (d *Deployment) Service(port int32) *Service {
	svc := NewService(d.manager).
		Namespace(d.model.Namespace).
		Name(fmt.Sprintf("%s-%d", d.model.Name, port))

	spec := svc.Spec()
	for k, v := range d.Spec().Selector().MatchLabels {
		spec.Selector(k, v)
	}
	spec.TCPPort(port)
	return svc
}

// Expose merges the service returned by Service.
func (d *Deployment) Expose(ctx context.Context, port int32, hooks ...connector.Callback) (*Service, error) {
	svc := d.Service(port)
	if _, err := svc.Merge(ctx, hooks...); err != nil {
		return nil, err
	}
	return svc, nil
}

// Pods lists the pods matching the deployment's selector.
func (d *Deployment) Pods(ctx context.Context) ([]*Pod, error) {
	matchLabels := d.Spec().Selector().MatchLabels
	if len(matchLabels) == 0 {
		return nil, fmt.Errorf("%s has no selector labels", d.Identity())
	}

	list := &corev1.PodList{}
	if err := d.manager.List(ctx, list, d.model.Namespace, matchLabels); err != nil {
		return nil, err
	}

	pods := make([]*Pod, 0, len(list.Items))
	for i := range list.Items {
		pods = append(pods, PodFrom(d.manager, &list.Items[i]))
	}
	return pods, nil
}

// DeploymentSpec is a view over a deployment spec.
type DeploymentSpec struct {
	model *appsv1.DeploymentSpec
}

// Selector returns the label selector, allocating it if needed.
func (s *DeploymentSpec) Selector() *metav1.LabelSelector {
	if s.model.Selector == nil {
		s.model.Selector = &metav1.LabelSelector{}
	}
	if s.model.Selector.MatchLabels == nil {
		s.model.Selector.MatchLabels = make(map[string]string)
	}
	return s.model.Selector
}

// Template returns a view over the pod template.
func (s *DeploymentSpec) Template() *DeploymentTemplate {
	return &DeploymentTemplate{model: &s.model.Template}
}

// Replicas sets the desired number of pods.
func (s *DeploymentSpec) Replicas(replicas int32) *DeploymentSpec {
	s.model.Replicas = &replicas
	return s
}

// Strategy sets how old pods are replaced by new ones.
func (s *DeploymentSpec) Strategy(strategy appsv1.DeploymentStrategy) *DeploymentSpec {
	s.model.Strategy = strategy
	return s
}

// DeploymentTemplate is a view over a deployment's pod template.
type DeploymentTemplate struct {
	model *corev1.PodTemplateSpec
}

// Metadata returns the pod template's metadata.
func (t *DeploymentTemplate) Metadata() *metav1.ObjectMeta {
	return &t.model.ObjectMeta
}

// Labels returns the template labels, allocating them if needed.
func (t *DeploymentTemplate) Labels() map[string]string {
	if t.model.Labels == nil {
		t.model.Labels = make(map[string]string)
	}
	return t.model.Labels
}

// PodSpec returns a view over the pod template's spec.
func (t *DeploymentTemplate) PodSpec() *PodSpec {
	return &PodSpec{model: &t.model.Spec}
}

// Recreate returns a strategy that kills all pods before creating new ones.
func Recreate() appsv1.DeploymentStrategy {
	return appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType}
}

// RollingUpdate returns a rolling update strategy with the given surge and unavailability,
// e.g. "25%" or "1".
func RollingUpdate(maxSurge, maxUnavailable string) appsv1.DeploymentStrategy {
	surge := intstr.Parse(maxSurge)
	unavailable := intstr.Parse(maxUnavailable)
	return appsv1.DeploymentStrategy{
		Type: appsv1.RollingUpdateDeploymentStrategyType,
		RollingUpdate: &appsv1.RollingUpdateDeployment{
			MaxSurge:       &surge,
			MaxUnavailable: &unavailable,
		},
	}
}

func setLabel(meta *metav1.ObjectMeta, key, value string) {
	if meta.Labels == nil {
		meta.Labels = make(map[string]string)
	}
	meta.Labels[key] = value
}

func setAnnotation(meta *metav1.ObjectMeta, key, value string) {
	if meta.Annotations == nil {
		meta.Annotations = make(map[string]string)
	}
	meta.Annotations[key] = value
}
