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

package resmgr

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(spec *corev1.PodSpec)
		errors []string
	}{
		{
			name:   "valid",
			mutate: func(spec *corev1.PodSpec) {},
		},
		{
			name: "duplicate container",
			mutate: func(spec *corev1.PodSpec) {
				spec.Containers = append(spec.Containers, corev1.Container{Name: "app", Image: "busybox"})
			},
			errors: []string{"spec.template.spec.containers[1].name"},
		},
		{
			name: "dangling volume mount",
			mutate: func(spec *corev1.PodSpec) {
				spec.Containers[0].VolumeMounts = []corev1.VolumeMount{{Name: "data", MountPath: "/data"}}
			},
			errors: []string{"spec.template.spec.containers[0].volumeMounts[0].name"},
		},
		{
			name: "env with value and reference",
			mutate: func(spec *corev1.PodSpec) {
				spec.Containers[0].Env = []corev1.EnvVar{{
					Name:  "TOKEN",
					Value: "literal",
					ValueFrom: &corev1.EnvVarSource{SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: "creds"},
						Key:                  "token",
					}},
				}}
			},
			errors: []string{"spec.template.spec.containers[0].env[0]"},
		},
		{
			name: "duplicate volume",
			mutate: func(spec *corev1.PodSpec) {
				spec.Volumes = []corev1.Volume{{Name: "data"}, {Name: "data"}}
			},
			errors: []string{"spec.template.spec.volumes[1].name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			d := newTestDeployment("default", "web", "nginx")
			tt.mutate(&d.Spec.Template.Spec)

			err := Validate(d)
			if len(tt.errors) == 0 {
				g.Expect(err).NotTo(HaveOccurred())
				return
			}

			var validationErr *connector.ValidationError
			g.Expect(errors.As(err, &validationErr)).To(BeTrue())
			var fields []string
			for _, e := range validationErr.Errors {
				fields = append(fields, e.Field)
			}
			g.Expect(fields).To(Equal(tt.errors))
		})
	}
}

func TestValidateSelector(t *testing.T) {
	g := NewWithT(t)

	d := newTestDeployment("default", "web", "nginx")
	d.Spec.Selector.MatchLabels["tier"] = "frontend"
	g.Expect(Validate(d)).To(MatchError(ContainSubstring("spec.selector.matchLabels[tier]")))

	d.Spec.Template.Labels["tier"] = "frontend"
	g.Expect(Validate(d)).To(Succeed())

	d.Spec.Selector = nil
	g.Expect(Validate(d)).To(MatchError(ContainSubstring("spec.selector.matchLabels")))

	d = newTestDeployment("default", "", "nginx")
	g.Expect(Validate(d)).To(MatchError(ContainSubstring("metadata.name")))
}
