package queue

import (
	"context"
	"sync"

	"github.com/kart-io/dingrobot/pkg/errors"
	"github.com/kart-io/dingrobot/pkg/logger"
)

// memoryQueue is a channel-backed in-process queue.
type memoryQueue struct {
	messages chan *Message
	capacity int
	logger   logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates an in-memory queue with the given capacity.
func NewMemoryQueue(capacity int, log logger.Logger) Queue {
	if log == nil {
		log = logger.Discard
	}
	if capacity <= 0 {
		capacity = 1000
	}
	return &memoryQueue{
		messages: make(chan *Message, capacity),
		capacity: capacity,
		logger:   log,
	}
}

func (q *memoryQueue) Enqueue(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New(errors.ErrInvalidMessage, "queue message cannot be nil")
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking: a full queue rejects rather than stalls the producer.
	select {
	case q.messages <- msg:
		q.logger.Debug("message enqueued", "messageID", msg.ID, "queued", len(q.messages))
		return nil
	default:
		q.logger.Warn("queue is full, rejecting message", "messageID", msg.ID, "capacity", q.capacity)
		return ErrQueueFull
	}
}

func (q *memoryQueue) Dequeue(ctx context.Context) (*Message, error) {
	select {
	case msg, ok := <-q.messages:
		if !ok {
			return nil, ErrQueueClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.ErrSendCanceled, "dequeue canceled")
	}
}

func (q *memoryQueue) Len() int {
	return len(q.messages)
}

func (q *memoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.messages)
	q.logger.Debug("memory queue closed", "dropped", len(q.messages))
	return nil
}
