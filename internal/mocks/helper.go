package mocks

import (
	"log"
	"net/http"
	"sync"
)

// MockHelper runs background tasks synchronously so tests can assert on
// their effects without sleeping.
type MockHelper struct {
	BaseURL string
	mu      sync.Mutex
	Errors  []error
}

func (m *MockHelper) NewEmailData() map[string]any {
	return map[string]any{"BaseURL": m.BaseURL}
}

func (m *MockHelper) BackgroundTask(r *http.Request, fn func() error) {
	err := fn()
	if err != nil {
		log.Printf("Background task error: %v", err)

		m.mu.Lock()
		m.Errors = append(m.Errors, err)
		m.mu.Unlock()
	}
}
