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
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Container is a view over a container. It is bound to a slot of a pod spec,
// or detached when built with NewContainer and not added yet.
// A bound container whose slot is replaced by a lookup or a merge is resolved
// again by name, and detached if the pod spec no longer has it.
type Container struct {
	spec     *corev1.PodSpec
	index    int
	name     string
	detached *corev1.Container
}

// NewContainer returns a detached container with the given name.
func NewContainer(name string) *Container {
	return &Container{detached: &corev1.Container{Name: name}}
}

// Model returns the underlying container.
func (c *Container) Model() *corev1.Container {
	if c.spec != nil {
		if c.index < len(c.spec.Containers) && c.spec.Containers[c.index].Name == c.name {
			return &c.spec.Containers[c.index]
		}
		for i := range c.spec.Containers {
			if c.spec.Containers[i].Name == c.name {
				c.index = i
				return &c.spec.Containers[i]
			}
		}
		c.spec = nil
		c.detached = &corev1.Container{Name: c.name}
	}
	if c.detached == nil {
		c.detached = &corev1.Container{}
	}
	return c.detached
}

func (c *Container) bind(spec *corev1.PodSpec, index int) {
	c.spec = spec
	c.index = index
	c.name = spec.Containers[index].Name
	c.detached = nil
}

// Name returns the container's name.
func (c *Container) Name() string {
	return c.Model().Name
}

// Rename sets the container's name.
func (c *Container) Rename(name string) *Container {
	c.Model().Name = name
	c.name = name
	return c
}

// Image sets the container's image reference.
func (c *Container) Image(image string) *Container {
	c.Model().Image = image
	return c
}

// Command overrides the image entrypoint.
func (c *Container) Command(command ...string) *Container {
	c.Model().Command = command
	return c
}

// Args overrides the image arguments.
func (c *Container) Args(args ...string) *Container {
	c.Model().Args = args
	return c
}

// ImagePullPolicy sets when the kubelet pulls the image.
func (c *Container) ImagePullPolicy(policy corev1.PullPolicy) *Container {
	c.Model().ImagePullPolicy = policy
	return c
}

// TCPPort declares a TCP container port, ports already declared are ignored.
func (c *Container) TCPPort(port int32) *Container {
	model := c.Model()
	for _, p := range model.Ports {
		if p.ContainerPort == port && p.Protocol == corev1.ProtocolTCP {
			return c
		}
	}
	model.Ports = append(model.Ports, corev1.ContainerPort{
		ContainerPort: port,
		Protocol:      corev1.ProtocolTCP,
	})
	return c
}

// ReadinessProbeTCP sets a readiness probe that opens a TCP connection to the port.
func (c *Container) ReadinessProbeTCP(port, initialDelaySeconds, periodSeconds, failureThreshold int32) *Container {
	c.Model().ReadinessProbe = &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt(int(port))},
		},
		InitialDelaySeconds: initialDelaySeconds,
		PeriodSeconds:       periodSeconds,
		FailureThreshold:    failureThreshold,
	}
	return c
}

// Env sets the variable to a literal value.
func (c *Container) Env(name, value string) *Container {
	c.setEnv(corev1.EnvVar{Name: name, Value: value})
	return c
}

// SecretEnv sets the variable to the value of the secret's key.
// Only the secret's name is recorded.
func (c *Container) SecretEnv(name, key string, secret *Secret) *Container {
	c.setEnv(corev1.EnvVar{
		Name: name,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: secret.Metadata().Name},
				Key:                  key,
			},
		},
	})
	return c
}

// setEnv replaces the entry with the same name or appends a new one.
func (c *Container) setEnv(env corev1.EnvVar) {
	model := c.Model()
	for i := range model.Env {
		if model.Env[i].Name == env.Name {
			model.Env[i] = env
			return
		}
	}
	model.Env = append(model.Env, env)
}

// VolumeMount mounts the volume at the given path, only the volume's name is recorded.
func (c *Container) VolumeMount(volume *Volume, mountPath string) *Container {
	model := c.Model()
	model.VolumeMounts = append(model.VolumeMounts, corev1.VolumeMount{
		Name:      volume.Name(),
		MountPath: mountPath,
	})
	return c
}
