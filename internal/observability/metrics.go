package observability

import "sync"

type requestKey struct {
	Route  string
	Method string
	Status int
}

type errorKey struct {
	Route  string
	Method string
	Code   string
}

// Metrics keeps in-process counters per route, split by final HTTP status and,
// for failures, by domain error code.
type Metrics struct {
	mu       sync.Mutex
	requests map[requestKey]int64
	errors   map[errorKey]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[requestKey]int64),
		errors:   make(map[errorKey]int64),
	}
}

// RecordRequest counts one handled request under its final status.
func (m *Metrics) RecordRequest(route, method string, status int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[requestKey{Route: route, Method: method, Status: status}]++
}

// RecordError counts one rejected request under its domain error code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{Route: route, Method: method, Code: code}]++
}

// RequestCount returns the number of requests counted for a route, method,
// and final status.
func (m *Metrics) RequestCount(route, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[requestKey{Route: route, Method: method, Status: status}]
}

// ErrorCount returns the number of errors counted for a route, method, and
// domain error code.
func (m *Metrics) ErrorCount(route, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[errorKey{Route: route, Method: method, Code: code}]
}
