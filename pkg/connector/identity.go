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

package connector

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
)

// Identity is the key of an object in the remote store.
type Identity struct {
	Group     string
	Kind      string
	Namespace string
	Name      string
}

// IdentityOf returns the identity of the object, the group and kind are
// resolved from the scheme when the object's type meta is empty.
func IdentityOf(obj client.Object) Identity {
	gvk, _ := GVKOf(obj)
	return Identity{
		Group:     gvk.Group,
		Kind:      gvk.Kind,
		Namespace: obj.GetNamespace(),
		Name:      obj.GetName(),
	}
}

// GVKOf returns the group, version and kind of the object or list.
func GVKOf(obj runtime.Object) (schema.GroupVersionKind, error) {
	gvk := obj.GetObjectKind().GroupVersionKind()
	if gvk.Kind != "" && gvk.Version != "" {
		return gvk, nil
	}
	gvk, err := apiutil.GVKForObject(obj, scheme)
	if err != nil {
		return obj.GetObjectKind().GroupVersionKind(), fmt.Errorf("unknown object type %T: %w", obj, err)
	}
	return gvk, nil
}

// String returns the identity in the Kind/namespace/name format.
func (id Identity) String() string {
	if id.Namespace == "" {
		return fmt.Sprintf("%s/%s", id.Kind, id.Name)
	}
	return fmt.Sprintf("%s/%s/%s", id.Kind, id.Namespace, id.Name)
}

// ObjMetadata converts the identity to the format used by inventories.
func (id Identity) ObjMetadata() object.ObjMetadata {
	return object.ObjMetadata{
		Namespace: id.Namespace,
		Name:      id.Name,
		GroupKind: schema.GroupKind{Group: id.Group, Kind: id.Kind},
	}
}

// ObjectKey returns the namespace and name of the identity.
func (id Identity) ObjectKey() client.ObjectKey {
	return client.ObjectKey{Namespace: id.Namespace, Name: id.Name}
}
