package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counting(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordRequest("/auth/login", "POST", 200, 5*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 200, 7*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 401, time.Millisecond)
	m.RecordError("/auth/login", "POST", "INVALID_CREDENTIALS")

	requests, errors := m.Snapshot()
	assert.Equal(t, int64(2), requests["POST /auth/login 200"])
	assert.Equal(t, int64(1), requests["POST /auth/login 401"])
	assert.Equal(t, int64(1), errors["POST /auth/login INVALID_CREDENTIALS"])
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordRequest("/x", "GET", 200, 0)
	m.RecordError("/x", "GET", "INTERNAL_ERROR")

	requests, errors := m.Snapshot()
	assert.Empty(t, requests)
	assert.Empty(t, errors)
}

func TestMetrics_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("/auth/refresh", "POST", 200, time.Millisecond)
		}()
	}
	wg.Wait()

	requests, _ := m.Snapshot()
	assert.Equal(t, int64(50), requests["POST /auth/refresh 200"])
}
