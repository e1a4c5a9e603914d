// Package async provides asynchronous delivery on top of the webhook
// sender: completion handles for single sends and a worker pool draining a
// queue of pending messages.
package async

import (
	"context"
	"sync"
)

// Handle is the completion signal of one asynchronous send. Abandoning a
// Handle does not stop the underlying delivery or its retry loop.
type Handle struct {
	done chan struct{}

	mu         sync.Mutex
	err        error
	completed  bool
	onComplete []func()
	onError    []func(error)
}

// NewHandle creates a pending handle.
func NewHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Complete resolves the handle and fires registered callbacks. Calling it
// more than once is a no-op.
func (h *Handle) Complete(err error) {
	h.mu.Lock()
	if h.completed {
		h.mu.Unlock()
		return
	}
	h.completed = true
	h.err = err
	completions := h.onComplete
	failures := h.onError
	h.mu.Unlock()

	close(h.done)

	if err != nil {
		for _, cb := range failures {
			cb(err)
		}
		return
	}
	for _, cb := range completions {
		cb()
	}
}

// Done returns a channel closed when the send has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the terminal error, or nil while pending or on success.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the send finishes or ctx is done, returning the send's
// terminal error. Waiting is observation only: a ctx expiry here abandons
// the handle without canceling the delivery.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnComplete registers a success callback. If the handle already resolved
// successfully the callback runs immediately.
func (h *Handle) OnComplete(cb func()) *Handle {
	h.mu.Lock()
	if h.completed {
		err := h.err
		h.mu.Unlock()
		if err == nil {
			cb()
		}
		return h
	}
	h.onComplete = append(h.onComplete, cb)
	h.mu.Unlock()
	return h
}

// OnError registers a failure callback. If the handle already resolved with
// an error the callback runs immediately.
func (h *Handle) OnError(cb func(error)) *Handle {
	h.mu.Lock()
	if h.completed {
		err := h.err
		h.mu.Unlock()
		if err != nil {
			cb(err)
		}
		return h
	}
	h.onError = append(h.onError, cb)
	h.mu.Unlock()
	return h
}
