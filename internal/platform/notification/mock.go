package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Delivery records a single call to a mock sender.
type Delivery struct {
	To   string
	Body string
}

// MockSMSSender is an SMSSender test double.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []Delivery
	ShouldFail bool
	FailError  string
}

func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Delivery{To: to, Body: body})
	if m.ShouldFail {
		return "", errors.New(m.FailError)
	}
	return fmt.Sprintf("SM%04d", len(m.calls)), nil
}

// Calls returns a copy of recorded sends.
func (m *MockSMSSender) Calls() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delivery(nil), m.calls...)
}

// MockVoiceCaller is a VoiceCaller test double.
type MockVoiceCaller struct {
	mu         sync.Mutex
	calls      []Delivery
	ShouldFail bool
	FailError  string
}

func (m *MockVoiceCaller) PlaceCall(_ context.Context, to, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Delivery{To: to, Body: message})
	if m.ShouldFail {
		return "", errors.New(m.FailError)
	}
	return fmt.Sprintf("CA%04d", len(m.calls)), nil
}

func (m *MockVoiceCaller) Calls() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delivery(nil), m.calls...)
}
