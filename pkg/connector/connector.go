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

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Callback observes or modifies an outgoing create or update payload before it is sent.
type Callback func(object client.Object) error

// Connector is the remote object store the reconciler converges against.
type Connector interface {
	// Find looks up the object by its namespace and name and fills it with the stored state.
	// It returns false if the object does not exist, in which case obj is left untouched.
	Find(ctx context.Context, obj client.Object) (bool, error)

	// Create sends the desired object and replaces it with the server's response.
	Create(ctx context.Context, desired client.Object, hooks ...Callback) error

	// Update copies the server-owned fields of current to desired, sends desired
	// and replaces it with the server's response.
	Update(ctx context.Context, current, desired client.Object, hooks ...Callback) error

	// DryRunUpdate performs Update without persisting the result, desired is
	// replaced with the object the server would store.
	DryRunUpdate(ctx context.Context, current, desired client.Object, hooks ...Callback) error

	// Delete removes the object, a missing object is not an error.
	Delete(ctx context.Context, obj client.Object) error

	// List fills the list with the objects from the namespace matching all the given labels.
	List(ctx context.Context, list client.ObjectList, namespace string, matchLabels map[string]string) error

	// Execute runs the task with a deadline, see the package level Execute function.
	Execute(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error
}

func runHooks(object client.Object, hooks []Callback) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(object); err != nil {
			return &ProcessingError{Subject: IdentityOf(object).String(), Err: err}
		}
	}
	return nil
}
