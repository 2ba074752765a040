package graph

import (
	"context"
	"sync"

	"github.com/infobarbosa/janusgraph-lab/internal/types"
)

// Responder computes a mock response for a submitted query.
type Responder func(q Query) (ResultSet, error)

type mockResponse struct {
	results ResultSet
	err     error
}

// MockConn is a Conn for unit tests. It records every submitted query and
// answers from a FIFO queue of scripted responses, falling back to the
// responder (if any) and finally to an empty result set.
type MockConn struct {
	mu sync.Mutex

	backend   Backend
	connected bool
	health    types.HealthStatus
	queue     []mockResponse
	responder Responder
	closeErr  error
	queries   []Query
	closes    int
}

// NewMockConn creates a connected mock speaking the given backend dialect.
func NewMockConn(backend Backend) *MockConn {
	return &MockConn{
		backend:   backend,
		connected: true,
		health:    types.Healthy("mock graph connection"),
	}
}

// Submit records q and returns the next scripted response.
func (m *MockConn) Submit(ctx context.Context, q Query) (ResultSet, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)

	if !m.connected {
		m.mu.Unlock()
		return nil, errNotConnected()
	}

	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return resp.results, resp.err
	}

	responder := m.responder
	m.mu.Unlock()

	if responder != nil {
		return responder(q)
	}
	return ResultSet{}, nil
}

// Close marks the mock disconnected.
func (m *MockConn) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closes++
	if m.closeErr != nil {
		return m.closeErr
	}
	m.connected = false
	return nil
}

// Health returns the configured status, or unhealthy once closed.
func (m *MockConn) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return types.Unhealthy("not connected")
	}
	return m.health
}

// Backend returns the configured backend.
func (m *MockConn) Backend() Backend {
	return m.backend
}

// AddResult queues a successful response.
func (m *MockConn) AddResult(results ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResponse{results: ResultSet(results)})
}

// AddError queues a failed response.
func (m *MockConn) AddError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResponse{err: err})
}

// SetResponder installs a fallback used once the queue is drained.
func (m *MockConn) SetResponder(r Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = r
}

// SetHealthStatus configures what Health() should return.
func (m *MockConn) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = status
}

// SetCloseError configures Close() to return an error.
func (m *MockConn) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = err
}

// Queries returns a copy of every submitted query in order.
func (m *MockConn) Queries() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Query, len(m.queries))
	copy(out, m.queries)
	return out
}

// QueriesByName returns the submitted queries with the given name.
func (m *MockConn) QueriesByName(name string) []Query {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Query, 0)
	for _, q := range m.queries {
		if q.Name == name {
			out = append(out, q)
		}
	}
	return out
}

// CloseCount returns how many times Close was called.
func (m *MockConn) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// IsConnected returns whether the mock is in connected state.
func (m *MockConn) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}
