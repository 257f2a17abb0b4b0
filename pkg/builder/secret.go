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

// Secret is a fluent facade over a core/v1 Secret.
type Secret struct {
	handle
	model *corev1.Secret
}

// NewSecret returns an empty secret bound to the manager.
func NewSecret(manager *resmgr.ResourceManager) *Secret {
	return SecretFrom(manager, &corev1.Secret{})
}

// SecretFrom wraps an existing secret model.
func SecretFrom(manager *resmgr.ResourceManager, model *corev1.Secret) *Secret {
	model.APIVersion = corev1.SchemeGroupVersion.String()
	model.Kind = "Secret"
	return &Secret{
		handle: handle{manager: manager, object: model},
		model:  model,
	}
}

// Model returns the underlying secret.
func (s *Secret) Model() *corev1.Secret {
	return s.model
}

// Metadata returns the secret's metadata.
func (s *Secret) Metadata() *metav1.ObjectMeta {
	return &s.model.ObjectMeta
}

// Namespace sets the secret's namespace.
func (s *Secret) Namespace(namespace string) *Secret {
	s.model.Namespace = namespace
	return s
}

// Name sets the secret's name.
func (s *Secret) Name(name string) *Secret {
	s.model.Name = name
	return s
}

// Label sets a metadata label on the secret.
func (s *Secret) Label(key, value string) *Secret {
	setLabel(&s.model.ObjectMeta, key, value)
	return s
}

// Type sets the secret's type.
func (s *Secret) Type(secretType corev1.SecretType) *Secret {
	s.model.Type = secretType
	return s
}

// Data sets the key to the raw value.
func (s *Secret) Data(key string, value []byte) *Secret {
	if s.model.Data == nil {
		s.model.Data = make(map[string][]byte)
	}
	s.model.Data[key] = value
	return s
}

// StringData sets a plain text value, the cluster stores it under Data.
func (s *Secret) StringData(key, value string) *Secret {
	if s.model.StringData == nil {
		s.model.StringData = make(map[string]string)
	}
	s.model.StringData[key] = value
	return s
}
