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
	"errors"
	"time"
)

// Execute runs task in its own goroutine with a context that expires after timeout,
// a zero timeout means no deadline. It returns:
// - nil when the task succeeds
// - ErrTimeout when the deadline expires first
// - ErrInterrupted when ctx is cancelled first
// - a *ProcessingError wrapping the task's error otherwise
//
// Execute does not wait for a task that is still running when the deadline expires,
// the task observes the cancellation through its context.
func Execute(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error {
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- task(ctx)
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return contextError(ctxErr)
		}
		if errors.Is(err, ErrProcessing) {
			return err
		}
		return &ProcessingError{Err: err}
	case <-ctx.Done():
		return contextError(ctx.Err())
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrInterrupted
}
