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

package connectortest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	apiequality "k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

// Verbs recorded by Cluster.
const (
	VerbFind   = "find"
	VerbCreate = "create"
	VerbUpdate = "update"
	VerbDryRun = "dry-run"
	VerbDelete = "delete"
	VerbList   = "list"
)

// Call is a request received by the cluster.
type Call struct {
	Verb    string
	Subject string
}

// Controller mutates a stored object, it is called with the cluster lock held
// before every read of the object. Use it to script status progressions.
type Controller func(obj client.Object)

// Cluster is an in-memory connector.Connector.
type Cluster struct {
	// Controller, when set, runs before every Find of an object.
	Controller Controller

	// Defaulter, when set, fills the server defaulted fields of created and updated objects.
	Defaulter func(obj client.Object)

	// FindError, when set, is returned by Find instead of a lookup.
	FindError error

	// BeforeUpdate, when set, runs with the stored object before an update is checked
	// against it. Use it to simulate a concurrent writer.
	BeforeUpdate func(stored client.Object)

	mu      sync.Mutex
	objects map[connector.Identity]client.Object
	calls   []Call
	uid     int
}

// New returns a cluster seeded with copies of the given objects. Seeded objects
// keep their resource version and generation, empty ones are set to 1.
func New(objects ...client.Object) *Cluster {
	c := &Cluster{objects: make(map[connector.Identity]client.Object)}
	for _, obj := range objects {
		c.Add(obj)
	}
	return c
}

// Add stores a copy of the object as is.
func (c *Cluster) Add(obj client.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := obj.DeepCopyObject().(client.Object)
	if stored.GetResourceVersion() == "" {
		stored.SetResourceVersion("1")
	}
	if stored.GetGeneration() == 0 {
		stored.SetGeneration(1)
	}
	if stored.GetUID() == "" {
		stored.SetUID(c.nextUID())
	}
	c.objects[key(stored)] = stored
}

// Get returns a copy of the stored object with the given identity.
func (c *Cluster) Get(kind, namespace, name string) (client.Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, obj := range c.objects {
		if id.Kind == kind && id.Namespace == namespace && id.Name == name {
			return obj.DeepCopyObject().(client.Object), true
		}
	}
	return nil, false
}

// Mutate runs fn on the stored object with the given identity.
func (c *Cluster) Mutate(kind, namespace, name string, fn func(obj client.Object)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, obj := range c.objects {
		if id.Kind == kind && id.Namespace == namespace && id.Name == name {
			fn(obj)
			return true
		}
	}
	return false
}

// Len returns the number of stored objects.
func (c *Cluster) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}

// Calls returns the requests received so far.
func (c *Cluster) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Count returns the number of requests received with the given verb.
func (c *Cluster) Count(verb string) int {
	n := 0
	for _, call := range c.Calls() {
		if call.Verb == verb {
			n++
		}
	}
	return n
}

func (c *Cluster) Find(ctx context.Context, obj client.Object) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record(VerbFind, obj)
	if err := ctx.Err(); err != nil {
		return false, &connector.RemoteError{Op: "query", Subject: subject(obj), Err: err}
	}
	if c.FindError != nil {
		return false, &connector.RemoteError{Op: "query", Subject: subject(obj), Err: c.FindError}
	}

	stored, ok := c.objects[key(obj)]
	if !ok {
		return false, nil
	}
	if c.Controller != nil {
		c.Controller(stored)
	}

	return true, connector.Overwrite(obj, stored.DeepCopyObject().(client.Object))
}

func (c *Cluster) Create(ctx context.Context, desired client.Object, hooks ...connector.Callback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record(VerbCreate, desired)
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(desired); err != nil {
			return &connector.ProcessingError{Subject: subject(desired), Err: err}
		}
	}

	id := key(desired)
	if _, ok := c.objects[id]; ok {
		return &connector.RemoteError{Op: "create", Subject: subject(desired),
			Err: apierrors.NewAlreadyExists(groupResource(id), id.Name)}
	}
	if desired.GetName() == "" {
		return &connector.RemoteError{Op: "create", Subject: subject(desired),
			Err: apierrors.NewBadRequest("name is required")}
	}

	stored := desired.DeepCopyObject().(client.Object)
	if c.Defaulter != nil {
		c.Defaulter(stored)
	}
	stored.SetResourceVersion("1")
	stored.SetGeneration(1)
	stored.SetUID(c.nextUID())
	stored.SetCreationTimestamp(metav1.NewTime(time.Now()))
	c.objects[id] = stored

	return connector.Overwrite(desired, stored.DeepCopyObject().(client.Object))
}

func (c *Cluster) Update(ctx context.Context, current, desired client.Object, hooks ...connector.Callback) error {
	return c.update(VerbUpdate, current, desired, hooks)
}

// DryRunUpdate checks and defaults the update like Update does but leaves the stored object untouched.
func (c *Cluster) DryRunUpdate(ctx context.Context, current, desired client.Object, hooks ...connector.Callback) error {
	return c.update(VerbDryRun, current, desired, hooks)
}

func (c *Cluster) update(verb string, current, desired client.Object, hooks []connector.Callback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	op := "update"
	if verb == VerbDryRun {
		op = "dry-run update"
	}

	c.record(verb, desired)
	if err := connector.CarryServerFields(current, desired); err != nil {
		return &connector.ProcessingError{Subject: subject(desired), Err: err}
	}
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(desired); err != nil {
			return &connector.ProcessingError{Subject: subject(desired), Err: err}
		}
	}

	id := key(desired)
	stored, ok := c.objects[id]
	if !ok {
		return &connector.RemoteError{Op: op, Subject: subject(desired),
			Err: apierrors.NewNotFound(groupResource(id), id.Name)}
	}
	if c.BeforeUpdate != nil && verb == VerbUpdate {
		c.BeforeUpdate(stored)
	}
	if desired.GetResourceVersion() != stored.GetResourceVersion() {
		return &connector.RemoteError{Op: op, Subject: subject(desired),
			Err: apierrors.NewConflict(groupResource(id), id.Name,
				fmt.Errorf("the object has been modified; please apply your changes to the latest version and try again"))}
	}

	updated := desired.DeepCopyObject().(client.Object)
	if err := connector.CarryServerFields(stored, updated); err != nil {
		return &connector.ProcessingError{Subject: subject(desired), Err: err}
	}
	if c.Defaulter != nil {
		c.Defaulter(updated)
	}
	if verb == VerbDryRun {
		return connector.Overwrite(desired, updated)
	}

	updated.SetResourceVersion(nextVersion(stored.GetResourceVersion()))
	if !specEqual(stored, updated) {
		updated.SetGeneration(stored.GetGeneration() + 1)
	}
	c.objects[id] = updated

	return connector.Overwrite(desired, updated.DeepCopyObject().(client.Object))
}

func (c *Cluster) Delete(ctx context.Context, obj client.Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record(VerbDelete, obj)
	delete(c.objects, key(obj))
	return nil
}

func (c *Cluster) List(ctx context.Context, list client.ObjectList, namespace string, matchLabels map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, Call{Verb: VerbList, Subject: namespace})

	listGVK, err := connector.GVKOf(list)
	if err != nil {
		return err
	}
	kind := strings.TrimSuffix(listGVK.Kind, "List")
	selector := labels.SelectorFromSet(matchLabels)

	var ids []connector.Identity
	for id, obj := range c.objects {
		if id.Kind != kind || (namespace != "" && id.Namespace != namespace) {
			continue
		}
		if !selector.Matches(labels.Set(obj.GetLabels())) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	items := make([]runtime.Object, 0, len(ids))
	for _, id := range ids {
		items = append(items, c.objects[id].DeepCopyObject())
	}
	return meta.SetList(list, items)
}

func (c *Cluster) Execute(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error {
	return connector.Execute(ctx, timeout, task)
}

func (c *Cluster) record(verb string, obj client.Object) {
	c.calls = append(c.calls, Call{Verb: verb, Subject: subject(obj)})
}

func (c *Cluster) nextUID() types.UID {
	c.uid++
	return types.UID(fmt.Sprintf("uid-%d", c.uid))
}

func key(obj client.Object) connector.Identity {
	id := connector.IdentityOf(obj)
	id.Group = ""
	return id
}

func subject(obj client.Object) string {
	return connector.IdentityOf(obj).String()
}

func groupResource(id connector.Identity) schema.GroupResource {
	return schema.GroupResource{Group: id.Group, Resource: strings.ToLower(id.Kind) + "s"}
}

func nextVersion(version string) string {
	v, _ := strconv.ParseInt(version, 10, 64)
	return strconv.FormatInt(v+1, 10)
}

func specEqual(a, b client.Object) bool {
	as := reflect.ValueOf(a).Elem().FieldByName("Spec")
	bs := reflect.ValueOf(b).Elem().FieldByName("Spec")
	if !as.IsValid() || !bs.IsValid() {
		return true
	}
	return apiequality.Semantic.DeepEqual(as.Interface(), bs.Interface())
}
