/*
Copyright 2021 Stefan Prodan
Copyright 2021 The Flux authors

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
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fluxcd/pkg/ssa"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

// ConcurrencyPolicy controls how version conflicts are handled on update.
type ConcurrencyPolicy string

const (
	// LastWriterWins re-reads the object and resubmits the update when the server
	// reports a version conflict.
	LastWriterWins ConcurrencyPolicy = "LastWriterWins"

	// VersionConditioned sends the update conditioned on the version read by find
	// and returns the conflict to the caller.
	VersionConditioned ConcurrencyPolicy = "VersionConditioned"
)

// Options configures a ResourceManager.
type Options struct {
	// Owner is used to label the objects created by the manager's callers.
	Owner ssa.Owner

	// Concurrency defaults to LastWriterWins.
	Concurrency ConcurrencyPolicy

	// Validate enables local structural validation before merge.
	Validate bool

	// WaitInterval is the default readiness polling interval.
	WaitInterval time.Duration

	// WaitTimeout is the default readiness timeout.
	WaitTimeout time.Duration

	// KindOrder overrides the order in which kinds are merged and deleted.
	KindOrder KindOrder
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Owner: ssa.Owner{
			Field: "kubeconnector",
			Group: "kubeconnector.dev",
		},
		Concurrency:  LastWriterWins,
		Validate:     true,
		WaitInterval: DefaultWaitInterval,
		WaitTimeout:  DefaultWaitTimeout,
	}
}

// ResourceManager reconciles Kubernetes resources through a connector.
type ResourceManager struct {
	conn connector.Connector
	fmt  *ResourceFormatter
	opts Options
}

// NewResourceManager creates a ResourceManager for the given connector.
func NewResourceManager(conn connector.Connector, opts Options) *ResourceManager {
	defaults := DefaultOptions()
	if opts.Concurrency == "" {
		opts.Concurrency = defaults.Concurrency
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = defaults.WaitInterval
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = defaults.WaitTimeout
	}
	if opts.Owner.Group == "" {
		opts.Owner = defaults.Owner
	}

	return &ResourceManager{
		conn: conn,
		fmt:  &ResourceFormatter{},
		opts: opts,
	}
}

// Connector returns the underlying connector.
func (m *ResourceManager) Connector() connector.Connector {
	return m.conn
}

// Owner returns the field manager name and the ownership label group.
func (m *ResourceManager) Owner() ssa.Owner {
	return m.opts.Owner
}

// Find fills the object with its in-cluster state, it returns false if the object doesn't exist.
func (m *ResourceManager) Find(ctx context.Context, object client.Object) (bool, error) {
	return m.conn.Find(ctx, object)
}

// List fills the list with the objects from the namespace that match the given labels.
func (m *ResourceManager) List(ctx context.Context, list client.ObjectList, namespace string, matchLabels map[string]string) error {
	return m.conn.List(ctx, list, namespace, matchLabels)
}

// Delete deletes the given object, objects that don't exist are ignored.
func (m *ResourceManager) Delete(ctx context.Context, object client.Object) (*ChangeSetEntry, error) {
	existingObject := object.DeepCopyObject().(client.Object)
	found, err := m.conn.Find(ctx, existingObject)
	if err != nil {
		return nil, err
	}
	if !found {
		return m.changeSetEntry(object, UnchangedAction, ""), nil
	}

	if err := m.conn.Delete(ctx, existingObject); err != nil {
		return nil, err
	}

	ctrllog.FromContext(ctx).V(1).Info("object deleted", "object", m.fmt.Object(object))
	return m.changeSetEntry(object, DeletedAction, ""), nil
}

// DeleteAll deletes the given set of objects in reverse apply order.
func (m *ResourceManager) DeleteAll(ctx context.Context, objects []client.Object) (*ChangeSet, error) {
	sort.Sort(sort.Reverse(ApplyOrder{Objects: objects, Order: m.opts.KindOrder}))
	changeSet := NewChangeSet()

	for _, object := range objects {
		entry, err := m.Delete(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("%s delete failed, error: %w", m.fmt.Object(object), err)
		}
		if entry.Action == string(DeletedAction) {
			changeSet.Add(*entry)
		}
	}
	return changeSet, nil
}

func (m *ResourceManager) changeSetEntry(object client.Object, action Action, diff string) *ChangeSetEntry {
	return &ChangeSetEntry{m.fmt.Object(object), string(action), diff}
}
