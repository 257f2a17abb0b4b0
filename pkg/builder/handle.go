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
	"context"
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stefanprodan/kubeconnector/pkg/connector"
	"github.com/stefanprodan/kubeconnector/pkg/resmgr"
)

// handle binds a model to the manager that converges it.
type handle struct {
	manager *resmgr.ResourceManager
	object  client.Object
	deleted bool
}

// Identity returns the kind, namespace and name of the model.
func (h *handle) Identity() connector.Identity {
	return connector.IdentityOf(h.object)
}

// Merge creates the object if it doesn't exist, or updates it if it has drifted.
// The model is replaced with the server's state.
func (h *handle) Merge(ctx context.Context, hooks ...connector.Callback) (*resmgr.ChangeSetEntry, error) {
	if err := h.checkStale(); err != nil {
		return nil, err
	}
	opts := h.manager.DefaultMergeOptions()
	opts.Hooks = hooks
	return h.manager.Merge(ctx, h.object, opts)
}

// Find replaces the model with the server's state, it returns false if the
// object doesn't exist, in which case the model is left untouched.
func (h *handle) Find(ctx context.Context) (bool, error) {
	if err := h.checkStale(); err != nil {
		return false, err
	}
	return h.manager.Find(ctx, h.object)
}

// Delete removes the object from the cluster, the facade can't be merged afterwards.
func (h *handle) Delete(ctx context.Context) error {
	if err := h.checkStale(); err != nil {
		return err
	}
	if _, err := h.manager.Delete(ctx, h.object); err != nil {
		return err
	}
	h.deleted = true
	return nil
}

// Ready blocks until the object is ready or the timeout expires.
func (h *handle) Ready(ctx context.Context, timeout time.Duration) error {
	if err := h.checkStale(); err != nil {
		return err
	}
	opts := h.manager.DefaultWaitOptions()
	opts.Timeout = timeout
	return h.manager.Wait(ctx, h.object, opts)
}

func (h *handle) checkStale() error {
	if h.deleted {
		return fmt.Errorf("%s: %w", h.Identity(), connector.ErrStale)
	}
	return nil
}
