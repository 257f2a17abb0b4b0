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
	"context"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// KubeConnector is a Connector backed by a controller-runtime client.
type KubeConnector struct {
	client     client.Client
	fieldOwner string
}

// NewKubeConnector returns a KubeConnector that sends create and update
// requests on behalf of the given field owner.
func NewKubeConnector(kubeClient client.Client, fieldOwner string) *KubeConnector {
	return &KubeConnector{
		client:     kubeClient,
		fieldOwner: fieldOwner,
	}
}

// Client returns the underlying controller-runtime client.
func (kc *KubeConnector) Client() client.Client {
	return kc.client
}

func (kc *KubeConnector) Find(ctx context.Context, obj client.Object) (bool, error) {
	found := obj.DeepCopyObject().(client.Object)
	Reset(found)

	err := kc.client.Get(ctx, client.ObjectKeyFromObject(obj), found)
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, &RemoteError{Op: "query", Subject: IdentityOf(obj).String(), Err: err}
	}

	return true, Overwrite(obj, found)
}

func (kc *KubeConnector) Create(ctx context.Context, desired client.Object, hooks ...Callback) error {
	if err := runHooks(desired, hooks); err != nil {
		return err
	}

	if err := kc.client.Create(ctx, desired, client.FieldOwner(kc.fieldOwner)); err != nil {
		return &RemoteError{Op: "create", Subject: IdentityOf(desired).String(), Err: err}
	}
	return nil
}

func (kc *KubeConnector) Update(ctx context.Context, current, desired client.Object, hooks ...Callback) error {
	return kc.update(ctx, "update", current, desired, hooks)
}

func (kc *KubeConnector) DryRunUpdate(ctx context.Context, current, desired client.Object, hooks ...Callback) error {
	return kc.update(ctx, "dry-run update", current, desired, hooks, client.DryRunAll)
}

func (kc *KubeConnector) update(ctx context.Context, op string, current, desired client.Object, hooks []Callback, opts ...client.UpdateOption) error {
	if err := CarryServerFields(current, desired); err != nil {
		return &ProcessingError{Subject: IdentityOf(desired).String(), Err: err}
	}
	if err := runHooks(desired, hooks); err != nil {
		return err
	}
	opts = append(opts, client.FieldOwner(kc.fieldOwner))
	if err := kc.client.Update(ctx, desired, opts...); err != nil {
		return &RemoteError{Op: op, Subject: IdentityOf(desired).String(), Err: err}
	}
	return nil
}

func (kc *KubeConnector) Delete(ctx context.Context, obj client.Object) error {
	err := kc.client.Delete(ctx, obj)
	if err != nil && !apierrors.IsNotFound(err) {
		return &RemoteError{Op: "delete", Subject: IdentityOf(obj).String(), Err: err}
	}
	return nil
}

func (kc *KubeConnector) List(ctx context.Context, list client.ObjectList, namespace string, matchLabels map[string]string) error {
	opts := []client.ListOption{
		client.InNamespace(namespace),
		client.MatchingLabels(matchLabels),
	}
	if err := kc.client.List(ctx, list, opts...); err != nil {
		return &RemoteError{Op: "list", Subject: namespace, Err: err}
	}
	return nil
}

func (kc *KubeConnector) Execute(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error {
	return Execute(ctx, timeout, task)
}
