package devicestesting

import (
	"errors"
	"sync"

	"github.com/hypebeast/go-osc/osc"
)

// MockOscClient records every packet handed to Send. It satisfies
// devices.OscClient.
type MockOscClient struct {
	mu           sync.Mutex
	sentMessages []*osc.Message
	shouldError  bool
}

func NewMockOscClient() *MockOscClient {
	return &MockOscClient{sentMessages: make([]*osc.Message, 0)}
}

func (m *MockOscClient) Send(packet osc.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return errors.New("mock send error")
	}
	if msg, ok := packet.(*osc.Message); ok {
		m.sentMessages = append(m.sentMessages, msg)
	}
	return nil
}

// GetSentMessages returns all messages that were sent
func (m *MockOscClient) GetSentMessages() []*osc.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*osc.Message, len(m.sentMessages))
	copy(result, m.sentMessages)
	return result
}

// ClearSentMessages discards the sent-message history
func (m *MockOscClient) ClearSentMessages() {
	m.mu.Lock()
	m.sentMessages = m.sentMessages[:0]
	m.mu.Unlock()
}

// SetError configures the mock to return errors
func (m *MockOscClient) SetError(shouldError bool) {
	m.mu.Lock()
	m.shouldError = shouldError
	m.mu.Unlock()
}
