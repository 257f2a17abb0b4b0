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
	"errors"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"sigs.k8s.io/cli-utils/pkg/kstatus/status"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
)

const (
	// DefaultWaitInterval is the readiness polling interval.
	DefaultWaitInterval = 5 * time.Second

	// DefaultWaitTimeout bounds readiness waits when no timeout is given.
	DefaultWaitTimeout = 5 * time.Minute
)

// ReadinessFunc reports whether a freshly fetched object is ready.
type ReadinessFunc func(object client.Object) (bool, error)

// WaitOptions configures a readiness wait.
type WaitOptions struct {
	// Interval between two fetches.
	Interval time.Duration

	// Timeout for the whole wait, zero means no deadline.
	Timeout time.Duration

	// Readiness defaults to the predicate returned by ReadinessFor.
	Readiness ReadinessFunc
}

// DefaultWaitOptions returns the wait options derived from the manager's options.
func (m *ResourceManager) DefaultWaitOptions() WaitOptions {
	return WaitOptions{
		Interval: m.opts.WaitInterval,
		Timeout:  m.opts.WaitTimeout,
	}
}

// Wait polls the in-cluster state of the given object until it is ready.
// The first fetch happens immediately, the next ones every interval.
// It fails with connector.ErrTimeout when the timeout expires,
// with connector.ErrInterrupted when the context is cancelled, and
// with a *connector.ProcessingError when a fetch fails or the object doesn't exist.
func (m *ResourceManager) Wait(ctx context.Context, object client.Object, opts WaitOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultWaitInterval
	}
	ready := opts.Readiness
	if ready == nil {
		ready = ReadinessFor(object)
	}

	subject := m.fmt.Object(object)
	log := ctrllog.FromContext(ctx).WithValues("object", subject)

	err := m.conn.Execute(ctx, opts.Timeout, func(ctx context.Context) error {
		return wait.PollImmediateUntil(opts.Interval, func() (bool, error) {
			existingObject := object.DeepCopyObject().(client.Object)
			found, err := m.conn.Find(ctx, existingObject)
			if err != nil {
				return false, err
			}
			if !found {
				return false, fmt.Errorf("%s not found", subject)
			}

			ok, err := ready(existingObject)
			if err != nil {
				return false, err
			}
			log.V(1).Info("readiness polled", "ready", ok,
				"generation", existingObject.GetGeneration(),
				"resourceVersion", existingObject.GetResourceVersion())
			return ok, nil
		}, ctx.Done())
	})
	if err != nil {
		return fmt.Errorf("%s wait failed, error: %w", subject, err)
	}

	return nil
}

// ReadinessFor returns the readiness predicate for the object's kind.
// Deployments use DeploymentReady, all other kinds are ready when kstatus computes them as Current.
func ReadinessFor(object client.Object) ReadinessFunc {
	switch object.(type) {
	case *appsv1.Deployment:
		return func(object client.Object) (bool, error) {
			deployment, ok := object.(*appsv1.Deployment)
			if !ok {
				return false, fmt.Errorf("expected a deployment, got %T", object)
			}
			return DeploymentReady(deployment), nil
		}
	default:
		return KStatusReady
	}
}

// DeploymentReady returns true when the controller has observed the latest
// generation and no replicas are unavailable.
func DeploymentReady(deployment *appsv1.Deployment) bool {
	return deployment.GetGeneration() == deployment.Status.ObservedGeneration &&
		deployment.Status.UnavailableReplicas == 0
}

// KStatusReady computes the object's status with kstatus and returns true if it's Current.
func KStatusReady(object client.Object) (bool, error) {
	u, ok := object.(*unstructured.Unstructured)
	if !ok {
		content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(object)
		if err != nil {
			return false, err
		}
		u = &unstructured.Unstructured{Object: content}
		if gvk, err := connector.GVKOf(object); err == nil {
			u.SetGroupVersionKind(gvk)
		}
	}

	res, err := status.Compute(u)
	if err != nil {
		return false, err
	}
	return res.Status == status.CurrentStatus, nil
}

// WaitForTermination waits for the given objects to be deleted from the cluster.
func (m *ResourceManager) WaitForTermination(ctx context.Context, objects []client.Object, interval, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, object := range objects {
		if err := wait.PollImmediateUntil(interval, m.isDeleted(ctx, object), ctx.Done()); err != nil {
			switch {
			case errors.Is(ctx.Err(), context.DeadlineExceeded):
				err = connector.ErrTimeout
			case ctx.Err() != nil:
				err = connector.ErrInterrupted
			}
			return fmt.Errorf("%s termination wait failed, error: %w", m.fmt.Object(object), err)
		}
	}
	return nil
}

func (m *ResourceManager) isDeleted(ctx context.Context, object client.Object) wait.ConditionFunc {
	return func() (bool, error) {
		obj := object.DeepCopyObject().(client.Object)
		found, err := m.conn.Find(ctx, obj)
		if err != nil {
			return false, err
		}
		return !found, nil
	}
}
