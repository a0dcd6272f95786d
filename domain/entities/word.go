package entities

import "strings"

// WordTiming is a recognized word with its offsets in seconds
type WordTiming struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// FileTranscript is the output of a prerecorded transcription
type FileTranscript struct {
	Text  string       `json:"text"`
	Words []WordTiming `json:"words"`
}

// NewFileTranscript builds the transcript text by joining the raw words and
// normalizes each timing to a trimmed lower-case word.
func NewFileTranscript(words []WordTiming) *FileTranscript {
	var builder strings.Builder
	timings := make([]WordTiming, 0, len(words))

	for _, w := range words {
		builder.WriteString(w.Word)
		builder.WriteByte(' ')
		timings = append(timings, WordTiming{
			Start: w.Start,
			End:   w.End,
			Word:  strings.ToLower(strings.TrimSpace(w.Word)),
		})
	}

	return &FileTranscript{
		Text:  strings.TrimSpace(builder.String()),
		Words: timings,
	}
}
