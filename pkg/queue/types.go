// Package queue provides the buffering layer for fire-and-forget webhook
// delivery, with in-memory and Redis backends.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/dingrobot/pkg/dingtalk"
	"github.com/kart-io/dingrobot/pkg/errors"
)

// Message wraps a webhook payload while it sits in a queue.
type Message struct {
	ID         string            `json:"id"`
	Body       *dingtalk.Message `json:"body"`
	Attempts   int               `json:"attempts"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// NewMessage wraps a payload for queueing.
func NewMessage(body *dingtalk.Message) *Message {
	return &Message{
		ID:         fmt.Sprintf("msg_%d", time.Now().UnixNano()),
		Body:       body,
		EnqueuedAt: time.Now(),
	}
}

// Queue is a FIFO buffer of pending webhook messages. Implementations are
// safe for concurrent use.
type Queue interface {
	// Enqueue adds a message. Fails when the queue is full or closed.
	Enqueue(ctx context.Context, msg *Message) error
	// Dequeue removes the oldest message, blocking until one is available,
	// the context is done, or the queue is closed.
	Dequeue(ctx context.Context) (*Message, error)
	// Len returns the number of buffered messages.
	Len() int
	// Close releases the queue. Subsequent operations fail with a
	// queue-closed error.
	Close() error
}

// Sentinel errors shared by queue backends.
var (
	ErrQueueFull   = errors.New(errors.ErrQueueFull, "queue is full")
	ErrQueueClosed = errors.New(errors.ErrQueueClosed, "queue is closed")
)
