// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engbridge

import (
	"context"
	"sync"
)

// future is a single-assignment result slot: exactly one of Transport's reader goroutine (on a
// matching reply) or its failure path (on a fatal transport error) resolves it. Waiters block on
// a channel close rather than polling, and additionally respect ctx cancellation.
type future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

// resolve completes the future. Only the first call has any effect — later calls (e.g. a
// transport shutdown racing a genuine reply) are silently ignored.
func (f *future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future resolves or ctx is done, whichever comes first.
func (f *future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
