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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// Pod is a facade over a core/v1 Pod, usually obtained from Deployment.Pods.
type Pod struct {
	handle
	model *corev1.Pod
}

// PodFrom wraps a pod read from the cluster.
func PodFrom(manager *resmgr.ResourceManager, model *corev1.Pod) *Pod {
	model.APIVersion = corev1.SchemeGroupVersion.String()
	model.Kind = "Pod"
	return &Pod{
		handle: handle{manager: manager, object: model},
		model:  model,
	}
}

// Model returns the underlying pod.
func (p *Pod) Model() *corev1.Pod {
	return p.model
}

// Metadata returns the pod's metadata.
func (p *Pod) Metadata() *metav1.ObjectMeta {
	return &p.model.ObjectMeta
}

// Spec returns a view over the pod's spec.
func (p *Pod) Spec() *PodSpec {
	return &PodSpec{model: &p.model.Spec}
}

// Phase returns the pod's lifecycle phase.
func (p *Pod) Phase() corev1.PodPhase {
	return p.model.Status.Phase
}

// NodeName returns the node the pod is scheduled on.
func (p *Pod) NodeName() string {
	return p.model.Spec.NodeName
}

// IsReady returns true if the pod's Ready condition is true.
func (p *Pod) IsReady() bool {
	for _, c := range p.model.Status.Conditions {
		if c.Type == corev1.PodReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

// Restarts returns the sum of the container restart counts.
func (p *Pod) Restarts() int32 {
	var restarts int32
	for _, s := range p.model.Status.ContainerStatuses {
		restarts += s.RestartCount
	}
	return restarts
}
