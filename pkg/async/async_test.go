package async

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/dingrobot/pkg/dingtalk"
	"github.com/kart-io/dingrobot/pkg/queue"
)

func TestHandle_WaitSuccess(t *testing.T) {
	h := NewHandle()
	go func() {
		time.Sleep(10 * time.Millisecond)
		h.Complete(nil)
	}()

	require.NoError(t, h.Wait(context.Background()))
	assert.NoError(t, h.Err())

	select {
	case <-h.Done():
	default:
		t.Fatal("Done channel should be closed after completion")
	}
}

func TestHandle_WaitFailure(t *testing.T) {
	h := NewHandle()
	want := fmt.Errorf("delivery failed")
	h.Complete(want)

	assert.Equal(t, want, h.Wait(context.Background()))
	assert.Equal(t, want, h.Err())
}

func TestHandle_WaitContextExpiry(t *testing.T) {
	h := NewHandle() // never completes

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandle_CompleteIdempotent(t *testing.T) {
	h := NewHandle()
	h.Complete(nil)
	h.Complete(fmt.Errorf("late error")) // must be ignored
	assert.NoError(t, h.Err())
}

func TestHandle_Callbacks(t *testing.T) {
	t.Run("registered before completion", func(t *testing.T) {
		h := NewHandle()
		var completed, failed atomic.Int32
		h.OnComplete(func() { completed.Add(1) }).
			OnError(func(error) { failed.Add(1) })

		h.Complete(nil)
		assert.Equal(t, int32(1), completed.Load())
		assert.Equal(t, int32(0), failed.Load())
	})

	t.Run("registered after completion", func(t *testing.T) {
		h := NewHandle()
		h.Complete(fmt.Errorf("boom"))

		var completed, failed atomic.Int32
		h.OnComplete(func() { completed.Add(1) })
		h.OnError(func(error) { failed.Add(1) })

		assert.Equal(t, int32(0), completed.Load())
		assert.Equal(t, int32(1), failed.Load())
	})
}

func TestWorker_DrainsQueue(t *testing.T) {
	q := queue.NewMemoryQueue(100, nil)
	defer func() { _ = q.Close() }()

	const total = 25
	var delivered atomic.Int32
	var mu sync.Mutex
	seen := map[string]bool{}

	w := NewWorker(q, func(ctx context.Context, msg *queue.Message) error {
		delivered.Add(1)
		mu.Lock()
		seen[msg.Body.Text.Content] = true
		mu.Unlock()
		return nil
	}, WithConcurrency(4))

	w.Start(context.Background())
	defer w.Stop()

	for i := 0; i < total; i++ {
		msg := queue.NewMessage(dingtalk.NewTextMessage(fmt.Sprintf("m-%d", i)))
		require.NoError(t, q.Enqueue(context.Background(), msg))
	}

	require.Eventually(t, func() bool { return delivered.Load() == total },
		2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, total)
}

func TestWorker_ContinuesAfterHandlerError(t *testing.T) {
	q := queue.NewMemoryQueue(10, nil)
	defer func() { _ = q.Close() }()

	var calls atomic.Int32
	w := NewWorker(q, func(ctx context.Context, msg *queue.Message) error {
		if calls.Add(1) == 1 {
			return fmt.Errorf("first delivery fails")
		}
		return nil
	})

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, q.Enqueue(context.Background(), queue.NewMessage(dingtalk.NewTextMessage("a"))))
	require.NoError(t, q.Enqueue(context.Background(), queue.NewMessage(dingtalk.NewTextMessage("b"))))

	require.Eventually(t, func() bool { return calls.Load() == 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestWorker_StopWaitsForInflight(t *testing.T) {
	q := queue.NewMemoryQueue(10, nil)
	defer func() { _ = q.Close() }()

	inHandler := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	w := NewWorker(q, func(ctx context.Context, msg *queue.Message) error {
		close(inHandler)
		<-release
		finished.Store(true)
		return nil
	})

	w.Start(context.Background())
	require.NoError(t, q.Enqueue(context.Background(), queue.NewMessage(dingtalk.NewTextMessage("x"))))
	<-inHandler

	stopDone := make(chan struct{})
	go func() {
		w.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.Fatal("Stop returned while a delivery was still in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	<-stopDone
	assert.True(t, finished.Load())
}
