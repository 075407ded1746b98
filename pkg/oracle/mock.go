package oracle

import (
	"context"
	"fmt"
	"sync"
)

// MockClient provides a controllable Completer for tests. Responses and
// errors are consumed in order; a nil error slot means the corresponding
// response is returned.
type MockClient struct {
	mu        sync.Mutex
	responses []Response
	errors    []error
	calls     int
	requests  []Request
}

// NewMockClient creates a mock with predefined responses and errors.
func NewMockClient(responses []Response, errors []error) *MockClient {
	return &MockClient{responses: responses, errors: errors}
}

// NewScriptedClient creates a mock that replies with the given texts in order.
func NewScriptedClient(texts ...string) *MockClient {
	responses := make([]Response, len(texts))
	for i, t := range texts {
		responses[i] = Response{Content: t, StopReason: "end_turn"}
	}
	return &MockClient{responses: responses}
}

// Complete returns the next scripted response or error.
func (m *MockClient) Complete(_ context.Context, in Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.requests = append(m.requests, in)

	if idx < len(m.errors) && m.errors[idx] != nil {
		return Response{}, m.errors[idx]
	}
	if idx >= len(m.responses) {
		return Response{}, fmt.Errorf("mock client: no more responses (call %d)", idx+1)
	}
	return m.responses[idx], nil
}

// ModelName returns a fixed test model name.
func (m *MockClient) ModelName() string {
	return "mock-model"
}

// Calls returns how many times Complete was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of all requests seen so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
