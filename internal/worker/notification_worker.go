package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/notify"
)

// NotificationWorker drains the notification queue on an interval, retrying
// failed deliveries with backoff. It runs decoupled from the request path:
// a delivery failure is logged and never reaches the caller that enqueued
// the job.
type NotificationWorker struct {
	queue    *notify.Queue
	sender   notify.Sender
	logger   *zap.Logger
	interval time.Duration
}

// NewNotificationWorker builds a worker over queue and sender.
func NewNotificationWorker(queue *notify.Queue, sender notify.Sender, logger *zap.Logger, interval time.Duration) *NotificationWorker {
	if interval <= 0 {
		interval = time.Second
	}
	return &NotificationWorker{queue: queue, sender: sender, logger: logger, interval: interval}
}

// Start launches the drain loop. It stops when ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.drain(ctx)
			}
		}
	}()
}

func (w *NotificationWorker) drain(ctx context.Context) {
	for {
		job := w.queue.PopDue(time.Now())
		if job == nil {
			return
		}

		if err := w.sender.Send(ctx, job); err != nil {
			w.logger.Warn("notification delivery failed",
				zap.String("job_id", job.ID),
				zap.String("kind", string(job.Kind)),
				zap.Int("attempt", job.Attempts+1),
				zap.Error(err))
			w.queue.Retry(job)
			continue
		}

		w.logger.Debug("notification delivered",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)))
	}
}
