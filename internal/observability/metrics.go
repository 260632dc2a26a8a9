package observability

import (
	"fmt"
	"sync"
	"time"
)

// Metrics keeps in-process request and error counters keyed by route.
type Metrics struct {
	mu       sync.RWMutex
	requests map[string]int64
	errors   map[string]int64
}

// NewMetrics initializes empty counters.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]int64),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts one completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := fmt.Sprintf("%s %s %d", method, path, status)
	m.mu.Lock()
	m.requests[key]++
	m.mu.Unlock()
}

// RecordError counts one failed request by error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := fmt.Sprintf("%s %s %s", method, path, code)
	m.mu.Lock()
	m.errors[key]++
	m.mu.Unlock()
}

// Snapshot returns copies of the current counters.
func (m *Metrics) Snapshot() (requests, errors map[string]int64) {
	requests = make(map[string]int64)
	errors = make(map[string]int64)
	if m == nil {
		return requests, errors
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.requests {
		requests[k] = v
	}
	for k, v := range m.errors {
		errors[k] = v
	}
	return requests, errors
}
