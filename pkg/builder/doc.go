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

// Package builder provides fluent facades for composing Kubernetes resources
// and converging them onto a cluster.
//
// Facades are views over a shared model: Deployment.Spec().Template().PodSpec()
// returns a facade that writes into the deployment's own pod spec, and every facade
// obtained for the same node observes the writes made through the others.
// Containers and volumes are addressed by their position in the pod spec, a facade
// created with NewContainer or NewVolume is detached until it is added to a pod spec.
//
// Top level facades (Deployment, Service, Secret, Pod) converge their model with Merge,
// which finds the in-cluster object and creates or updates it. After Merge the model holds
// the server's state. After Delete the facade is stale and its remote operations fail
// with connector.ErrStale.
package builder
