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

package inventory

import (
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// Inventory is a record of objects that are applied on a cluster.
type Inventory struct {
	Name      string  `json:"-"`
	Namespace string  `json:"-"`
	Entries   []Entry `json:"entries"`
}

// Entry holds the identity and API version of an object.
type Entry struct {
	// ObjectID is the object's ObjMetadata in the 'namespace_name_group_kind' format.
	ObjectID string `json:"id"`

	// ObjectVersion is the API version of the object's kind.
	ObjectVersion string `json:"v"`
}

func NewInventory(name, namespace string) *Inventory {
	return &Inventory{
		Name:      name,
		Namespace: namespace,
		Entries:   []Entry{},
	}
}

// AddObjects records the given objects, objects already recorded are updated in place.
func (inv *Inventory) AddObjects(objects []client.Object) error {
	for _, o := range objects {
		gvk, err := connector.GVKOf(o)
		if err != nil {
			return err
		}

		id := connector.IdentityOf(o).ObjMetadata().String()
		entry := Entry{ObjectID: id, ObjectVersion: gvk.Version}
		if i := inv.indexOf(id); i >= 0 {
			inv.Entries[i] = entry
			continue
		}
		inv.Entries = append(inv.Entries, entry)
	}

	return nil
}

func (inv *Inventory) indexOf(id string) int {
	for i, e := range inv.Entries {
		if e.ObjectID == id {
			return i
		}
	}
	return -1
}

// ListMeta returns the inventory entries as object.ObjMetadata objects.
func (inv *Inventory) ListMeta() (object.ObjMetadataSet, error) {
	var metas object.ObjMetadataSet
	for _, e := range inv.Entries {
		m, err := object.ParseObjMetadata(e.ObjectID)
		if err != nil {
			return metas, err
		}
		metas = append(metas, m)
	}

	return metas, nil
}

// ListObjects returns the inventory entries as unstructured objects in apply order.
func (inv *Inventory) ListObjects() ([]client.Object, error) {
	metas, err := inv.ListMeta()
	if err != nil {
		return nil, err
	}
	return inv.toObjects(metas), nil
}

// Diff returns the objects that do not exist in the target inventory.
func (inv *Inventory) Diff(target *Inventory) ([]client.Object, error) {
	aList, err := inv.ListMeta()
	if err != nil {
		return nil, err
	}

	bList, err := target.ListMeta()
	if err != nil {
		return nil, err
	}

	return inv.toObjects(aList.Diff(bList)), nil
}

func (inv *Inventory) toObjects(metas object.ObjMetadataSet) []client.Object {
	objects := make([]client.Object, 0, len(metas))
	for _, metadata := range metas {
		u := &unstructured.Unstructured{}
		u.SetGroupVersionKind(schema.GroupVersionKind{
			Group:   metadata.GroupKind.Group,
			Kind:    metadata.GroupKind.Kind,
			Version: inv.versionOf(metadata.String()),
		})
		u.SetName(metadata.Name)
		u.SetNamespace(metadata.Namespace)
		objects = append(objects, u)
	}

	sort.Sort(resmgr.ApplyOrder{Objects: objects})
	return objects
}

func (inv *Inventory) versionOf(id string) string {
	if i := inv.indexOf(id); i >= 0 {
		return inv.Entries[i].ObjectVersion
	}
	return ""
}
