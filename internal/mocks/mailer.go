package mocks

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// SentMail is a message the mock accepted.
type SentMail struct {
	Recipient string
	Data      any
	Templates []string
}

type MockMailer struct {
	mock.Mock

	mu   sync.Mutex
	sent []SentMail
}

func (m *MockMailer) Send(recipient string, data any, patterns ...string) error {
	args := m.Called(recipient, data, patterns)

	if args.Error(0) == nil {
		m.mu.Lock()
		m.sent = append(m.sent, SentMail{Recipient: recipient, Data: data, Templates: patterns})
		m.mu.Unlock()
	}

	return args.Error(0)
}

func (m *MockMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]SentMail(nil), m.sent...)
}
