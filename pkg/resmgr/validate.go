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
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

// Validate checks the structure of the object before it is sent to the cluster.
// It returns a *connector.ValidationError holding all the problems found.
func Validate(object client.Object) error {
	var errs field.ErrorList
	if object.GetName() == "" {
		errs = append(errs, field.Required(field.NewPath("metadata", "name"), ""))
	}

	switch o := object.(type) {
	case *appsv1.Deployment:
		specPath := field.NewPath("spec")
		errs = append(errs, ValidateSelector(o.Spec.Selector, o.Spec.Template.Labels, specPath)...)
		errs = append(errs, ValidatePodSpec(&o.Spec.Template.Spec, specPath.Child("template", "spec"))...)
	case *corev1.Pod:
		errs = append(errs, ValidatePodSpec(&o.Spec, field.NewPath("spec"))...)
	case *corev1.Service:
		for i, port := range o.Spec.Ports {
			if port.Port <= 0 {
				errs = append(errs, field.Invalid(field.NewPath("spec", "ports").Index(i).Child("port"),
					port.Port, "must be greater than zero"))
			}
		}
	}

	if len(errs) > 0 {
		return &connector.ValidationError{
			Subject: connector.IdentityOf(object).String(),
			Errors:  errs,
		}
	}
	return nil
}

// ValidateSelector checks that every selector label is set on the pod template with the same value.
func ValidateSelector(selector *metav1.LabelSelector, templateLabels map[string]string, path *field.Path) field.ErrorList {
	var errs field.ErrorList
	selectorPath := path.Child("selector", "matchLabels")
	if selector == nil || len(selector.MatchLabels) == 0 {
		return append(errs, field.Required(selectorPath, "at least one label is required"))
	}

	for k, v := range selector.MatchLabels {
		if templateLabels[k] != v {
			errs = append(errs, field.Invalid(selectorPath.Key(k), v, "must match the pod template labels"))
		}
	}
	return errs
}

// ValidatePodSpec checks for duplicate container and volume names,
// mounts of undeclared volumes and env entries with both a value and a reference.
func ValidatePodSpec(spec *corev1.PodSpec, path *field.Path) field.ErrorList {
	var errs field.ErrorList

	volumes := make(map[string]bool, len(spec.Volumes))
	for i, v := range spec.Volumes {
		if volumes[v.Name] {
			errs = append(errs, field.Duplicate(path.Child("volumes").Index(i).Child("name"), v.Name))
		}
		volumes[v.Name] = true
	}

	containers := make(map[string]bool, len(spec.Containers))
	for i, c := range spec.Containers {
		containerPath := path.Child("containers").Index(i)
		if c.Name == "" {
			errs = append(errs, field.Required(containerPath.Child("name"), ""))
		} else if containers[c.Name] {
			errs = append(errs, field.Duplicate(containerPath.Child("name"), c.Name))
		}
		containers[c.Name] = true

		for j, env := range c.Env {
			if env.Value != "" && env.ValueFrom != nil {
				errs = append(errs, field.Invalid(containerPath.Child("env").Index(j), env.Name,
					"may not have both a value and valueFrom"))
			}
		}

		for j, mount := range c.VolumeMounts {
			if !volumes[mount.Name] {
				errs = append(errs, field.NotFound(containerPath.Child("volumeMounts").Index(j).Child("name"), mount.Name))
			}
		}
	}

	return errs
}
