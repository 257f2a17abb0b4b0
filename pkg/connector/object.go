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
	"reflect"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Overwrite replaces the content of dst with the content of src.
// Both objects must have the same concrete type.
func Overwrite(dst, src client.Object) error {
	dv, sv := reflect.ValueOf(dst), reflect.ValueOf(src)
	if dv.Type() != sv.Type() || dv.Kind() != reflect.Ptr {
		return fmt.Errorf("cannot overwrite %T with %T", dst, src)
	}
	dv.Elem().Set(sv.Elem())
	return nil
}

// Reset zeroes the object, keeping its type meta, namespace and name.
func Reset(obj client.Object) {
	gvk := obj.GetObjectKind().GroupVersionKind()
	namespace, name := obj.GetNamespace(), obj.GetName()

	v := reflect.ValueOf(obj).Elem()
	v.Set(reflect.Zero(v.Type()))

	obj.GetObjectKind().SetGroupVersionKind(gvk)
	obj.SetNamespace(namespace)
	obj.SetName(name)
}

// CarryServerFields copies the fields owned by the server from current to desired:
// resource version, uid, generation, creation timestamp and status.
// A service's cluster IPs are carried over unless desired sets them.
func CarryServerFields(current, desired client.Object) error {
	desired.SetResourceVersion(current.GetResourceVersion())
	desired.SetUID(current.GetUID())
	desired.SetGeneration(current.GetGeneration())
	desired.SetCreationTimestamp(current.GetCreationTimestamp())

	if cs, ok := current.(*corev1.Service); ok {
		if ds, ok := desired.(*corev1.Service); ok && ds.Spec.ClusterIP == "" {
			ds.Spec.ClusterIP = cs.Spec.ClusterIP
			ds.Spec.ClusterIPs = cs.Spec.ClusterIPs
		}
	}

	return copyStatus(current, desired)
}

func copyStatus(current, desired client.Object) error {
	if cu, ok := current.(*unstructured.Unstructured); ok {
		du, ok := desired.(*unstructured.Unstructured)
		if !ok {
			return fmt.Errorf("cannot copy status from %T to %T", current, desired)
		}
		status, found, err := unstructured.NestedFieldCopy(cu.Object, "status")
		if err != nil || !found {
			return err
		}
		return unstructured.SetNestedField(du.Object, status, "status")
	}

	cv, dv := reflect.ValueOf(current), reflect.ValueOf(desired)
	if cv.Type() != dv.Type() {
		return fmt.Errorf("cannot copy status from %T to %T", current, desired)
	}
	cs := cv.Elem().FieldByName("Status")
	if !cs.IsValid() {
		return nil
	}
	dv.Elem().FieldByName("Status").Set(cs)
	return nil
}
