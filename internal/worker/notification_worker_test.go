package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/notify"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []*notify.Job
	failures int
}

func (s *recordingSender) Send(ctx context.Context, job *notify.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, job)
	return nil
}

func (s *recordingSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestNotificationWorker_DrainsQueue(t *testing.T) {
	t.Parallel()

	logger := zap.NewNop()
	queue := notify.NewQueue(8, 3, time.Minute, logger)
	sender := &recordingSender{}
	worker := NewNotificationWorker(queue, sender, logger, 5*time.Millisecond)

	queue.Enqueue(notify.KindVerification, "a@x.com", map[string]string{"token": "t1"})
	queue.Enqueue(notify.KindWelcome, "b@x.com", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	require.Eventually(t, func() bool {
		return sender.sentCount() == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, queue.Depth())
}

func TestNotificationWorker_RetriesFailedDelivery(t *testing.T) {
	t.Parallel()

	logger := zap.NewNop()
	queue := notify.NewQueue(8, 3, time.Nanosecond, logger)
	sender := &recordingSender{failures: 1}
	worker := NewNotificationWorker(queue, sender, logger, 5*time.Millisecond)

	queue.Enqueue(notify.KindPasswordReset, "c@x.com", map[string]string{"token": "t2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	require.Eventually(t, func() bool {
		return sender.sentCount() == 1
	}, time.Second, 5*time.Millisecond)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, 1, sender.sent[0].Attempts, "delivery succeeded on the retry")
}
