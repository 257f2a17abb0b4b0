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

	"github.com/fluxcd/pkg/ssa"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// OwnerLabels returns a hook that labels the outgoing object with
// <group>/name and <group>/namespace.
func OwnerLabels(owner ssa.Owner, name, namespace string) Callback {
	return func(object client.Object) error {
		labels := object.GetLabels()
		if labels == nil {
			labels = make(map[string]string)
		}

		labels[owner.Group+"/name"] = name
		labels[owner.Group+"/namespace"] = namespace

		object.SetLabels(labels)
		return nil
	}
}

// Annotations returns a hook that sets the given annotations on the outgoing object.
func Annotations(annotations map[string]string) Callback {
	return func(object client.Object) error {
		if len(annotations) == 0 {
			return nil
		}
		existing := object.GetAnnotations()
		if existing == nil {
			existing = make(map[string]string)
		}
		for k, v := range annotations {
			if k == "" {
				return fmt.Errorf("empty annotation key")
			}
			existing[k] = v
		}
		object.SetAnnotations(existing)
		return nil
	}
}
