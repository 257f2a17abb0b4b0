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
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	corev1 "k8s.io/api/core/v1"
	apiequality "k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

// MergeOptions configures a single merge.
type MergeOptions struct {
	// Validate runs the local structural checks before any request is sent.
	Validate bool

	// Hooks are applied to the outgoing object on create and update.
	Hooks []connector.Callback
}

// DefaultMergeOptions returns the merge options derived from the manager's options.
func (m *ResourceManager) DefaultMergeOptions() MergeOptions {
	return MergeOptions{Validate: m.opts.Validate}
}

// Merge converges the in-cluster object to the desired state.
// The object is created if it doesn't exist and updated only if it has drifted,
// in both cases the desired object is replaced with the server's response.
// Drift is detected with a dry-run update, when the server would store the
// in-cluster object unchanged no update is sent and the desired object is
// replaced with the in-cluster one.
func (m *ResourceManager) Merge(ctx context.Context, desired client.Object, opts MergeOptions) (*ChangeSetEntry, error) {
	log := ctrllog.FromContext(ctx).WithValues("object", m.fmt.Object(desired))

	if opts.Validate {
		if err := Validate(desired); err != nil {
			return nil, err
		}
	}

	var entry *ChangeSetEntry
	merge := func() error {
		existingObject := desired.DeepCopyObject().(client.Object)
		found, err := m.conn.Find(ctx, existingObject)
		if err != nil {
			return err
		}

		if !found {
			if err := m.conn.Create(ctx, desired, opts.Hooks...); err != nil {
				return err
			}
			entry = m.changeSetEntry(desired, CreatedAction, "")
			return nil
		}

		// do not update objects that have not drifted to avoid bumping the generation
		drift, diff, err := m.hasDrifted(ctx, existingObject, desired, opts.Hooks)
		if err != nil {
			return err
		}
		if !drift {
			if err := connector.Overwrite(desired, existingObject); err != nil {
				return err
			}
			entry = m.changeSetEntry(desired, UnchangedAction, "")
			return nil
		}

		log.V(1).Info("drift detected", "diff", diff)
		if err := m.conn.Update(ctx, existingObject, desired, opts.Hooks...); err != nil {
			return err
		}
		entry = m.changeSetEntry(desired, ConfiguredAction, diff)
		return nil
	}

	var err error
	switch m.opts.Concurrency {
	case VersionConditioned:
		err = merge()
	default:
		err = retry.RetryOnConflict(retry.DefaultRetry, merge)
	}
	if err != nil {
		return nil, err
	}

	log.V(1).Info("object merged", "action", entry.Action)
	return entry, nil
}

// MergeAll merges the given objects in apply order, e.g. Secrets and Services before Deployments.
func (m *ResourceManager) MergeAll(ctx context.Context, objects []client.Object, opts MergeOptions) (*ChangeSet, error) {
	sort.Sort(ApplyOrder{Objects: objects, Order: m.opts.KindOrder})
	changeSet := NewChangeSet()

	for _, object := range objects {
		entry, err := m.Merge(ctx, object, opts)
		if err != nil {
			return nil, fmt.Errorf("%s merge failed, error: %w", m.fmt.Object(object), err)
		}
		changeSet.Add(*entry)
	}

	return changeSet, nil
}

// hasDrifted sends the desired object as a dry-run update and compares the server's
// response with the in-cluster object. The desired labels and annotations must be
// present in-cluster, all the other top level fields except status must be equal.
func (m *ResourceManager) hasDrifted(ctx context.Context, existingObject, desiredObject client.Object, hooks []connector.Callback) (bool, string, error) {
	dryRunObject := desiredObject.DeepCopyObject().(client.Object)
	if err := m.conn.DryRunUpdate(ctx, existingObject, dryRunObject, hooks...); err != nil {
		return false, "", err
	}

	existing, err := toComparable(existingObject)
	if err != nil {
		return false, "", &connector.ProcessingError{Subject: m.fmt.Object(desiredObject), Err: err}
	}
	dryRun, err := toComparable(dryRunObject)
	if err != nil {
		return false, "", &connector.ProcessingError{Subject: m.fmt.Object(desiredObject), Err: err}
	}

	if !apiequality.Semantic.DeepDerivative(dryRun.GetLabels(), existing.GetLabels()) {
		return true, cmp.Diff(existing.Object, dryRun.Object), nil
	}

	if !apiequality.Semantic.DeepDerivative(dryRun.GetAnnotations(), existing.GetAnnotations()) {
		return true, cmp.Diff(existing.Object, dryRun.Object), nil
	}

	existing, dryRun = prepareForDiff(existing), prepareForDiff(dryRun)
	if !apiequality.Semantic.DeepEqual(dryRun.Object, existing.Object) {
		return true, cmp.Diff(existing.Object, dryRun.Object), nil
	}

	return false, "", nil
}

// prepareForDiff returns a copy of the object without metadata and status.
func prepareForDiff(object *unstructured.Unstructured) *unstructured.Unstructured {
	result := object.DeepCopy()
	unstructured.RemoveNestedField(result.Object, "metadata")
	unstructured.RemoveNestedField(result.Object, "status")
	return result
}

// toComparable converts the object to unstructured, folding the write-only
// fields into their stored form.
func toComparable(object client.Object) (*unstructured.Unstructured, error) {
	if secret, ok := object.(*corev1.Secret); ok && len(secret.StringData) > 0 {
		folded := secret.DeepCopy()
		if folded.Data == nil {
			folded.Data = make(map[string][]byte, len(folded.StringData))
		}
		for k, v := range folded.StringData {
			folded.Data[k] = []byte(v)
		}
		folded.StringData = nil
		object = folded
	}

	u, err := runtime.DefaultUnstructuredConverter.ToUnstructured(object)
	if err != nil {
		return nil, err
	}
	result := &unstructured.Unstructured{Object: u}

	if _, ok := object.(*unstructured.Unstructured); ok && result.GetKind() == "Secret" && result.GetAPIVersion() == "v1" {
		result = result.DeepCopy()
		if err := foldStringData(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// foldStringData moves an unstructured secret's stringData into data, base64 encoded.
func foldStringData(secret *unstructured.Unstructured) error {
	stringData, found, err := unstructured.NestedStringMap(secret.Object, "stringData")
	if err != nil || !found {
		return err
	}

	data, _, err := unstructured.NestedStringMap(secret.Object, "data")
	if err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]string, len(stringData))
	}
	for k, v := range stringData {
		data[k] = base64.StdEncoding.EncodeToString([]byte(v))
	}

	unstructured.RemoveNestedField(secret.Object, "stringData")
	return unstructured.SetNestedStringMap(secret.Object, data, "data")
}
