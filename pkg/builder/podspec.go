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
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

// PodSpec is a view over a pod spec.
type PodSpec struct {
	model *corev1.PodSpec
}

// Model returns the underlying pod spec.
func (p *PodSpec) Model() *corev1.PodSpec {
	return p.model
}

// Containers appends the containers to the pod spec and binds the facades to their slots.
func (p *PodSpec) Containers(containers ...*Container) *PodSpec {
	for _, c := range containers {
		p.model.Containers = append(p.model.Containers, *c.Model())
		c.bind(p.model, len(p.model.Containers)-1)
	}
	return p
}

// ContainerList returns a facade for every container of the pod spec.
func (p *PodSpec) ContainerList() []*Container {
	containers := make([]*Container, 0, len(p.model.Containers))
	for i := range p.model.Containers {
		c := &Container{}
		c.bind(p.model, i)
		containers = append(containers, c)
	}
	return containers
}

// Container returns the container with the given name, or connector.ErrNotFound.
func (p *PodSpec) Container(name string) (*Container, error) {
	for i := range p.model.Containers {
		if p.model.Containers[i].Name == name {
			c := &Container{}
			c.bind(p.model, i)
			return c, nil
		}
	}
	return nil, fmt.Errorf("container %q: %w", name, connector.ErrNotFound)
}

// Volumes appends the volumes to the pod spec and binds the facades to their slots.
func (p *PodSpec) Volumes(volumes ...*Volume) *PodSpec {
	for _, v := range volumes {
		p.model.Volumes = append(p.model.Volumes, *v.Model())
		v.bind(p.model, len(p.model.Volumes)-1)
	}
	return p
}

// VolumeList returns a facade for every volume of the pod spec.
func (p *PodSpec) VolumeList() []*Volume {
	volumes := make([]*Volume, 0, len(p.model.Volumes))
	for i := range p.model.Volumes {
		v := &Volume{}
		v.bind(p.model, i)
		volumes = append(volumes, v)
	}
	return volumes
}

// HostNetwork runs the pod in the node's network namespace.
func (p *PodSpec) HostNetwork() *PodSpec {
	p.model.HostNetwork = true
	return p
}

// ServiceAccount sets the service account the pod runs as.
func (p *PodSpec) ServiceAccount(name string) *PodSpec {
	p.model.ServiceAccountName = name
	return p
}

// NodeSelector adds the labels to the node selector.
func (p *PodSpec) NodeSelector(selector map[string]string) *PodSpec {
	if p.model.NodeSelector == nil {
		p.model.NodeSelector = make(map[string]string, len(selector))
	}
	for k, v := range selector {
		p.model.NodeSelector[k] = v
	}
	return p
}

// ImagePullSecret references the secret by name, it is not merged.
func (p *PodSpec) ImagePullSecret(secret *Secret) *PodSpec {
	name := secret.Metadata().Name
	for _, ref := range p.model.ImagePullSecrets {
		if ref.Name == name {
			return p
		}
	}
	p.model.ImagePullSecrets = append(p.model.ImagePullSecrets, corev1.LocalObjectReference{Name: name})
	return p
}
