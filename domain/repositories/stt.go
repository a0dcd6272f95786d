package repositories

import (
	"context"

	"github.com/satriahrh/topicstream/domain/entities"
)

// SpeechToText abstracts live speech recognition services
type SpeechToText interface {
	// InitTranscribeStreaming opens a live transcription session
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// PrerecordedSpeechToText transcribes a complete audio file in one request
type PrerecordedSpeechToText interface {
	TranscribeFile(ctx context.Context, audioData []byte, options PrerecordedOptions) (*entities.FileTranscript, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Channels   int    `json:"channels" yaml:"channels"`
	Encoding   string `json:"encoding" yaml:"encoding"`
	Language   string `json:"language" yaml:"language"`
}

// PrerecordedOptions tunes a file transcription request
type PrerecordedOptions struct {
	Model       string
	SmartFormat bool
	MimeType    string
}

// SpeechToTextStreaming is a live session. Stream may be called from one
// goroutine while another drains Results.
type SpeechToTextStreaming interface {
	// Stream sends a chunk of raw audio
	Stream(data []byte) error
	// Results yields final transcripts and is closed when the session ends
	Results() <-chan entities.Transcript
	// Err reports why the session ended, nil for a clean close
	Err() error
	// End flushes pending audio and closes the session
	End() error
}
