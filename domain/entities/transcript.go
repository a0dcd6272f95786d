package entities

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinChunkSize is the number of characters buffered before a flush
const DefaultMinChunkSize = 100

// Transcript is a single recognized segment coming off a transcription stream
type Transcript struct {
	Text       string  `json:"text"`
	IsFinal    bool    `json:"is_final"`
	Confidence float64 `json:"confidence,omitempty"`
	Start      float64 `json:"start,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
}

// TranscriptBuffer accumulates final transcripts until enough text is available
// to summarize. It is not safe for concurrent use.
type TranscriptBuffer struct {
	builder      strings.Builder
	minChunkSize int
	segments     int
}

// NewTranscriptBuffer creates a buffer that becomes ready at minChunkSize characters
func NewTranscriptBuffer(minChunkSize int) *TranscriptBuffer {
	if minChunkSize <= 0 {
		minChunkSize = DefaultMinChunkSize
	}
	return &TranscriptBuffer{minChunkSize: minChunkSize}
}

// Append adds a segment followed by a single space. Blank segments are ignored.
func (b *TranscriptBuffer) Append(segment string) {
	if strings.TrimSpace(segment) == "" {
		return
	}
	b.builder.WriteString(segment)
	b.builder.WriteByte(' ')
	b.segments++
}

// Len returns the buffered length in characters
func (b *TranscriptBuffer) Len() int {
	return utf8.RuneCountInString(b.builder.String())
}

// Segments returns how many segments were appended since the last reset
func (b *TranscriptBuffer) Segments() int {
	return b.segments
}

// Ready reports whether the buffer reached the flush threshold
func (b *TranscriptBuffer) Ready() bool {
	return b.Len() >= b.minChunkSize
}

// String returns the buffered text, including the trailing separator
func (b *TranscriptBuffer) String() string {
	return b.builder.String()
}

// Reset empties the buffer after a flush
func (b *TranscriptBuffer) Reset() {
	b.builder.Reset()
	b.segments = 0
}
