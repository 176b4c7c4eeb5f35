package messaging

import (
	"context"
	"sync"
)

// MockService records outbound messages for tests.
type MockService struct {
	mu   sync.Mutex
	Sent []MockMessage
	Err  error
}

// MockMessage is one recorded notification.
type MockMessage struct {
	To   string
	Body string
}

// NewMockService creates an empty mock notification service.
func NewMockService() *MockService {
	return &MockService{}
}

// ValidateAndCanonicalizeRecipient applies the Kenyan canonicalization rules.
func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizePhone(recipient)
}

// SendMessage records the message, or returns the configured error.
func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, MockMessage{To: to, Body: body})
	return nil
}

// Messages returns a copy of the recorded messages.
func (m *MockService) Messages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// Stop is a no-op.
func (m *MockService) Stop() error { return nil }
