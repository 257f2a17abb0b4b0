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

// Package resmgr contains utilities for reconciling Kubernetes resources through a connector.
//
// The ResourceManager performs the following actions:
// - validates the objects locally before any request is sent
// - orders the Kubernetes objects for merge (Secrets, Services before Deployments)
// - finds the in-cluster objects and creates the ones that don't exist
// - determines if the in-cluster objects are in drift and updates only those
// - retries or surfaces version conflicts according to the concurrency policy
// - waits for the objects to become ready by polling their status
// - deletes objects and waits for them to be terminated
package resmgr
