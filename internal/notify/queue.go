package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind enumerates outbound notification types.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password-reset"
	KindWelcome       Kind = "welcome"
)

// Job is one queued notification. Delivery is fire-and-forget from the
// caller's perspective.
type Job struct {
	ID           string
	Kind         Kind
	Recipient    string
	Data         map[string]string
	Attempts     int
	MaxAttempts  int
	CreatedAt    time.Time
	ScheduledFor time.Time
}

// Queue is a bounded in-memory notification queue. Enqueue never blocks
// and never fails the security operation that triggered it; when the queue
// is full the job is dropped with a warning.
type Queue struct {
	mu          sync.Mutex
	jobs        []*Job
	capacity    int
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

// NewQueue builds a queue with the given capacity and retry policy.
func NewQueue(capacity, maxAttempts int, baseDelay time.Duration, logger *zap.Logger) *Queue {
	if capacity <= 0 {
		capacity = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &Queue{
		jobs:        make([]*Job, 0, capacity),
		capacity:    capacity,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// Enqueue adds a job for asynchronous delivery and returns its ID, or the
// empty string when the job was dropped.
func (q *Queue) Enqueue(kind Kind, recipient string, data map[string]string) string {
	job := &Job{
		ID:           uuid.NewString(),
		Kind:         kind,
		Recipient:    recipient,
		Data:         data,
		MaxAttempts:  q.maxAttempts,
		CreatedAt:    time.Now(),
		ScheduledFor: time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) >= q.capacity {
		q.logger.Warn("notification queue full, dropping job",
			zap.String("kind", string(kind)),
			zap.String("recipient", recipient))
		return ""
	}
	q.jobs = append(q.jobs, job)
	return job.ID
}

// PopDue atomically removes and returns one job whose schedule has come,
// or nil when none is ready. The removed job is owned by the caller until
// it is either delivered or handed back via Retry.
func (q *Queue) PopDue(now time.Time) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, job := range q.jobs {
		if !job.ScheduledFor.After(now) {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return job
		}
	}
	return nil
}

// Retry reschedules a failed job with increasing backoff. It reports false
// when the attempt budget is exhausted and the job was discarded.
func (q *Queue) Retry(job *Job) bool {
	job.Attempts++
	if job.Attempts >= job.MaxAttempts {
		q.logger.Error("notification job failed permanently",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Int("attempts", job.Attempts))
		return false
	}

	job.ScheduledFor = time.Now().Add(RetryDelay(job.Attempts, q.baseDelay))

	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return true
}

// Depth reports the number of jobs waiting for delivery.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// RetryDelay returns the backoff before the given retry attempt: the base
// delay scaled linearly by attempt number.
func RetryDelay(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * baseDelay
}
