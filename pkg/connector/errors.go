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
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

var (
	// ErrNotFound is returned by local lookups, e.g. a container name missing from a pod spec.
	// Remote absence is reported by Connector.Find with a false result instead.
	ErrNotFound = errors.New("not found")

	// ErrRemote matches every *RemoteError.
	ErrRemote = errors.New("remote error")

	// ErrInterrupted is returned when the caller cancelled the context of a bounded operation.
	ErrInterrupted = errors.New("operation interrupted")

	// ErrProcessing matches every *ProcessingError.
	ErrProcessing = errors.New("processing error")

	// ErrTimeout is returned when a bounded operation ran past its deadline.
	ErrTimeout = errors.New("operation timeout")

	// ErrStale is returned by facades whose object has been deleted.
	ErrStale = errors.New("object has been deleted")
)

// RemoteError is a failure reported by the API server, e.g. a validation
// rejection, a permission error or a version conflict.
type RemoteError struct {
	Op      string
	Subject string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s failed, error: %v", e.Subject, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// ProcessingError is a failure of a task run by Execute or of a payload hook.
type ProcessingError struct {
	Subject string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", ErrProcessing, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Subject, ErrProcessing, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

func (e *ProcessingError) Is(target error) bool { return target == ErrProcessing }

// ValidationError holds the structural problems found in an object before it was sent.
type ValidationError struct {
	Subject string
	Errors  field.ErrorList
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed, error: %v", e.Subject, e.Errors.ToAggregate())
}
