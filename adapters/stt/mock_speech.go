package stt

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

var defaultMockPhrases = []string{
	"The rocket launch was delayed because of strong winds over the coast.",
	"Engineers expect the next attempt to happen later this week.",
	"Meanwhile the crew continues training for the long mission to Mars.",
}

// MockSpeechToText emits one scripted phrase per audio chunk
type MockSpeechToText struct {
	logger  *zap.Logger
	phrases []string
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a mock transcription service. With no phrases
// a built-in script is used.
func NewMockSpeechToText(logger *zap.Logger, phrases ...string) *MockSpeechToText {
	if len(phrases) == 0 {
		phrases = defaultMockPhrases
	}
	return &MockSpeechToText{
		logger:  logger,
		phrases: phrases,
	}
}

// InitTranscribeStreaming creates a new mock streaming session
func (s *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	s.logger.Info("Initializing mock streaming transcription",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	return &MockSpeechToTextStream{
		logger:  s.logger,
		phrases: s.phrases,
		results: make(chan entities.Transcript, resultsBufferSize),
	}, nil
}

// MockSpeechToTextStream is a mock implementation of streaming speech recognition
type MockSpeechToTextStream struct {
	mu      sync.Mutex
	logger  *zap.Logger
	phrases []string
	next    int
	ended   bool
	results chan entities.Transcript
}

// Stream emits the next phrase for every non-empty chunk
func (m *MockSpeechToTextStream) Stream(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return domain.ErrStreamClosed
	}
	if len(data) == 0 {
		return nil
	}

	phrase := m.phrases[m.next%len(m.phrases)]
	m.next++

	select {
	case m.results <- entities.Transcript{Text: phrase, IsFinal: true, Confidence: 1}:
	default:
		m.logger.Warn("Dropping mock transcript, results are not being drained")
	}
	return nil
}

// Results emits one final transcript per accepted chunk
func (m *MockSpeechToTextStream) Results() <-chan entities.Transcript {
	return m.results
}

// Err is always nil, the mock never fails
func (m *MockSpeechToTextStream) Err() error {
	return nil
}

// End closes the results channel
func (m *MockSpeechToTextStream) End() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ended {
		m.ended = true
		close(m.results)
		m.logger.Info("Ending mock transcription stream", zap.Int("chunks", m.next))
	}
	return nil
}
