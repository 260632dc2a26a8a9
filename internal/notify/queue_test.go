package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueue_EnqueuePopDue(t *testing.T) {
	t.Parallel()

	q := NewQueue(8, 3, time.Minute, zap.NewNop())

	id := q.Enqueue(KindVerification, "user@x.com", map[string]string{"token": "abc"})
	require.NotEmpty(t, id)
	assert.Equal(t, 1, q.Depth())

	job := q.PopDue(time.Now())
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, KindVerification, job.Kind)
	assert.Equal(t, "user@x.com", job.Recipient)
	assert.Equal(t, "abc", job.Data["token"])
	assert.Equal(t, 0, q.Depth(), "popped job left the queue")

	assert.Nil(t, q.PopDue(time.Now()), "empty queue yields nothing")
}

func TestQueue_PopDueRespectsSchedule(t *testing.T) {
	t.Parallel()

	q := NewQueue(8, 3, time.Hour, zap.NewNop())

	q.Enqueue(KindWelcome, "user@x.com", nil)
	job := q.PopDue(time.Now())
	require.NotNil(t, job)

	// A failed delivery goes back with a future schedule.
	require.True(t, q.Retry(job))
	assert.Nil(t, q.PopDue(time.Now()), "rescheduled job is not due yet")
	assert.Equal(t, 1, q.Depth())

	later := time.Now().Add(2 * time.Hour)
	assert.NotNil(t, q.PopDue(later))
}

func TestQueue_RetryExhaustion(t *testing.T) {
	t.Parallel()

	q := NewQueue(8, 3, time.Millisecond, zap.NewNop())

	q.Enqueue(KindPasswordReset, "user@x.com", nil)
	later := time.Now().Add(time.Hour)

	job := q.PopDue(later)
	require.NotNil(t, job)
	assert.True(t, q.Retry(job), "first retry accepted")

	job = q.PopDue(later)
	require.NotNil(t, job)
	assert.True(t, q.Retry(job), "second retry accepted")

	job = q.PopDue(later)
	require.NotNil(t, job)
	assert.False(t, q.Retry(job), "third failure exhausts the budget")
	assert.Equal(t, 0, q.Depth(), "discarded job was not requeued")
}

func TestQueue_DropsWhenFull(t *testing.T) {
	t.Parallel()

	q := NewQueue(2, 3, time.Minute, zap.NewNop())

	require.NotEmpty(t, q.Enqueue(KindWelcome, "a@x.com", nil))
	require.NotEmpty(t, q.Enqueue(KindWelcome, "b@x.com", nil))

	assert.Empty(t, q.Enqueue(KindWelcome, "c@x.com", nil), "full queue drops instead of blocking")
	assert.Equal(t, 2, q.Depth())
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	base := time.Minute
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Minute},
		{attempt: 1, want: time.Minute},
		{attempt: 2, want: 2 * time.Minute},
		{attempt: 3, want: 3 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.attempt, base))
	}
}
