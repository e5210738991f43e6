package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyflow/crm/pkg/notify"
	"github.com/realtyflow/crm/pkg/queue"
)

type fakeSource struct {
	dequeues int64
	retries  int64
	jobs     chan *queue.Job
	err      error
}

func (f *fakeSource) Dequeue(ctx context.Context) (*queue.Job, error) {
	atomic.AddInt64(&f.dequeues, 1)
	if f.err != nil {
		return nil, f.err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case j := <-f.jobs:
		return j, nil
	}
}

func (f *fakeSource) Retry(_ context.Context, _ *queue.Job) error {
	atomic.AddInt64(&f.retries, 1)
	return nil
}

func newTestWorker(src *fakeSource, backoff time.Duration) *Worker {
	w := New(src, notify.NewSender(notify.Config{}, zap.NewNop()), zap.NewNop())
	w.backoff = backoff
	return w
}

func TestRunBacksOffOnDequeueFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	w := newTestWorker(src, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// Roughly one attempt per backoff interval, not a tight spin.
	n := atomic.LoadInt64(&src.dequeues)
	assert.GreaterOrEqual(t, n, int64(2))
	assert.LessOrEqual(t, n, int64(20))
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{jobs: make(chan *queue.Job)}
	w := newTestWorker(src, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestRunRetriesFailedJob(t *testing.T) {
	// Malformed payload makes the email job fail without any provider call.
	payload := json.RawMessage(`{`)
	src := &fakeSource{jobs: make(chan *queue.Job, 1)}
	src.jobs <- &queue.Job{ID: "j1", Type: queue.JobTypeEmail, Payload: payload}
	w := newTestWorker(src, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return atomic.LoadInt64(&src.retries) == 1 },
		time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
