package mocks

import (
	"net/http"
	"sync"
)

// MockErrorHandler collects reported errors instead of logging and emailing them.
type MockErrorHandler struct {
	mu       sync.Mutex
	Reported []error
}

func (m *MockErrorHandler) ReportServerError(r *http.Request, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reported = append(m.Reported, err)
}

func (m *MockErrorHandler) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]error(nil), m.Reported...)
}
