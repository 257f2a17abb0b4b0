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

// Package connectortest provides an in-memory connector.Connector for tests.
//
// Cluster keeps the bookkeeping an API server does on writes: the resource version
// is incremented on every write, the generation is incremented when the spec changes,
// the status is owned by the cluster and updates conditioned on a stale version fail
// with a conflict. Status changes are scripted with Cluster.Controller.
package connectortest
