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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// Service is a fluent facade over a core/v1 Service.
type Service struct {
	handle
	model *corev1.Service
}

// NewService returns an empty service bound to the manager.
func NewService(manager *resmgr.ResourceManager) *Service {
	return ServiceFrom(manager, &corev1.Service{})
}

// ServiceFrom wraps an existing service model.
func ServiceFrom(manager *resmgr.ResourceManager, model *corev1.Service) *Service {
	model.APIVersion = corev1.SchemeGroupVersion.String()
	model.Kind = "Service"
	return &Service{
		handle: handle{manager: manager, object: model},
		model:  model,
	}
}

// Model returns the underlying service.
func (s *Service) Model() *corev1.Service {
	return s.model
}

// Metadata returns the service's metadata.
func (s *Service) Metadata() *metav1.ObjectMeta {
	return &s.model.ObjectMeta
}

// Namespace sets the service's namespace.
func (s *Service) Namespace(namespace string) *Service {
	s.model.Namespace = namespace
	return s
}

// Name sets the service's name.
func (s *Service) Name(name string) *Service {
	s.model.Name = name
	return s
}

// Label sets a metadata label on the service.
func (s *Service) Label(key, value string) *Service {
	setLabel(&s.model.ObjectMeta, key, value)
	return s
}

// Spec returns a view over the service's spec.
func (s *Service) Spec() *ServiceSpec {
	return &ServiceSpec{model: &s.model.Spec}
}

// ServiceSpec is a view over a service spec.
type ServiceSpec struct {
	model *corev1.ServiceSpec
}

// Selectors returns the pod selector, allocating it if needed.
func (s *ServiceSpec) Selectors() map[string]string {
	if s.model.Selector == nil {
		s.model.Selector = make(map[string]string)
	}
	return s.model.Selector
}

// Selector adds a pod selector label.
func (s *ServiceSpec) Selector(key, value string) *ServiceSpec {
	s.Selectors()[key] = value
	return s
}

// Type sets how the service is exposed.
func (s *ServiceSpec) Type(serviceType corev1.ServiceType) *ServiceSpec {
	s.model.Type = serviceType
	return s
}

// TCPPort exposes the port over TCP and targets the same container port.
// Ports already exposed are ignored.
func (s *ServiceSpec) TCPPort(port int32) *ServiceSpec {
	for _, p := range s.model.Ports {
		if p.Port == port && p.Protocol == corev1.ProtocolTCP {
			return s
		}
	}
	s.model.Ports = append(s.model.Ports, corev1.ServicePort{
		Name:       fmt.Sprintf("tcp-%d", port),
		Protocol:   corev1.ProtocolTCP,
		Port:       port,
		TargetPort: intstr.FromInt(int(port)),
	})
	return s
}
