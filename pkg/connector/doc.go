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

// Package connector defines the remote store the reconciler works against.
//
// A Connector looks objects up by identity, creates, updates, deletes and lists them,
// and runs bounded units of work:
// - Find reports absence with a boolean, never with an error
// - Create and Update write the server's response back into the given object
// - Update carries the server-owned fields (resource version, generation, status) of the
// previously found object over to the desired one before sending it
// - Delete is best-effort, objects that are already gone are not an error
// - Execute runs a task under a deadline and returns as soon as the deadline expires
//
// KubeConnector implements the interface on top of a controller-runtime client,
// the connectortest package provides an in-memory implementation for tests.
package connector
