package async

import (
	"context"
	"sync"

	"github.com/kart-io/dingrobot/pkg/errors"
	"github.com/kart-io/dingrobot/pkg/logger"
	"github.com/kart-io/dingrobot/pkg/queue"
)

// Handler delivers one queued message. The sender's Send method satisfies
// this signature through a small closure.
type Handler func(ctx context.Context, msg *queue.Message) error

// Worker drains a queue into a Handler with a fixed level of concurrency.
type Worker struct {
	queue       queue.Queue
	handler     Handler
	concurrency int
	logger      logger.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// WorkerOption customizes a Worker.
type WorkerOption func(*Worker)

// WithConcurrency sets the number of draining goroutines.
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(log logger.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.logger = log
		}
	}
}

// NewWorker creates a worker over the given queue and handler.
func NewWorker(q queue.Queue, handler Handler, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:       q,
		handler:     handler,
		concurrency: 1,
		logger:      logger.Discard,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the draining goroutines. Subsequent calls are no-ops.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		ctx, w.cancel = context.WithCancel(ctx)
		w.logger.Info("starting delivery workers", "concurrency", w.concurrency)
		for i := 0; i < w.concurrency; i++ {
			w.wg.Add(1)
			go w.run(ctx, i)
		}
	})
}

// Stop signals the workers and waits for in-flight deliveries to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		w.wg.Wait()
		w.logger.Info("delivery workers stopped")
	})
}

func (w *Worker) run(ctx context.Context, id int) {
	defer w.wg.Done()

	for {
		msg, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.CodeOf(err) == errors.ErrQueueClosed {
				return
			}
			w.logger.Error("dequeue failed", "worker", id, "error", err)
			continue
		}

		msg.Attempts++
		if err := w.handler(ctx, msg); err != nil {
			// The handler already ran the transport retry policy; a
			// failure here is terminal for the message.
			w.logger.Error("queued delivery failed",
				"worker", id,
				"messageID", msg.ID,
				"attempts", msg.Attempts,
				"error", err)
			continue
		}
		w.logger.Debug("queued delivery succeeded", "worker", id, "messageID", msg.ID)
	}
}
