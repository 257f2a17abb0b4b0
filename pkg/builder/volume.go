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
)

// Volume is a view over a pod volume, it follows the same binding rules as Container.
type Volume struct {
	spec     *corev1.PodSpec
	index    int
	name     string
	detached *corev1.Volume
}

// NewVolume returns a detached volume with the given name.
func NewVolume(name string) *Volume {
	return &Volume{detached: &corev1.Volume{Name: name}}
}

// Model returns the underlying volume.
func (v *Volume) Model() *corev1.Volume {
	if v.spec != nil {
		if v.index < len(v.spec.Volumes) && v.spec.Volumes[v.index].Name == v.name {
			return &v.spec.Volumes[v.index]
		}
		for i := range v.spec.Volumes {
			if v.spec.Volumes[i].Name == v.name {
				v.index = i
				return &v.spec.Volumes[i]
			}
		}
		v.spec = nil
		v.detached = &corev1.Volume{Name: v.name}
	}
	if v.detached == nil {
		v.detached = &corev1.Volume{}
	}
	return v.detached
}

func (v *Volume) bind(spec *corev1.PodSpec, index int) {
	v.spec = spec
	v.index = index
	v.name = spec.Volumes[index].Name
	v.detached = nil
}

// Name returns the volume's name.
func (v *Volume) Name() string {
	return v.Model().Name
}

// Secret sources the volume from the secret with the given name.
func (v *Volume) Secret(name string) *Volume {
	v.Model().VolumeSource = corev1.VolumeSource{
		Secret: &corev1.SecretVolumeSource{SecretName: name},
	}
	return v
}

// ConfigMap sources the volume from the config map with the given name.
func (v *Volume) ConfigMap(name string) *Volume {
	v.Model().VolumeSource = corev1.VolumeSource{
		ConfigMap: &corev1.ConfigMapVolumeSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: name},
		},
	}
	return v
}

// EmptyDir backs the volume with an empty directory that lives as long as the pod.
func (v *Volume) EmptyDir() *Volume {
	v.Model().VolumeSource = corev1.VolumeSource{
		EmptyDir: &corev1.EmptyDirVolumeSource{},
	}
	return v
}

// HostPath mounts the given path of the node.
func (v *Volume) HostPath(path string) *Volume {
	v.Model().VolumeSource = corev1.VolumeSource{
		HostPath: &corev1.HostPathVolumeSource{Path: path},
	}
	return v
}
