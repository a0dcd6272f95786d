package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/satriahrh/topicstream/domain/repositories"
)

// MockLLM streams a canned reply split into word-sized deltas
type MockLLM struct {
	Reply string
	Err   error

	mu       sync.Mutex
	requests [][]repositories.ChatMessage
}

var _ repositories.LargeLanguageModel = (*MockLLM)(nil)

// NewMockLLM creates a mock model that always answers with reply
func NewMockLLM(reply string) *MockLLM {
	if reply == "" {
		reply = "space launch, Mars mission, weather delay"
	}
	return &MockLLM{Reply: reply}
}

func (m *MockLLM) CompleteStream(ctx context.Context, messages []repositories.ChatMessage) (<-chan string, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, messages)
	m.mu.Unlock()

	deltas := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		for _, word := range strings.SplitAfter(m.Reply, " ") {
			select {
			case deltas <- word:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}

		if m.Err != nil {
			errs <- m.Err
		}
	}()

	return deltas, errs
}

// Requests returns every conversation sent so far
func (m *MockLLM) Requests() [][]repositories.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]repositories.ChatMessage(nil), m.requests...)
}
