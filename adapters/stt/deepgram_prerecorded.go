package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	defaultDeepgramPrerecordedURL = "https://api.deepgram.com/v1/listen"
	defaultPrerecordedModel       = "nova-2"
	defaultPrerecordedMimeType    = "audio/mpeg"
	defaultPrerecordedTimeout     = 10 * time.Minute
)

// DeepgramPrerecorded implements PrerecordedSpeechToText over Deepgram's REST API
type DeepgramPrerecorded struct {
	apiKey     string
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.PrerecordedSpeechToText = (*DeepgramPrerecorded)(nil)

// NewDeepgramPrerecorded creates a file transcription client. An empty
// baseURL selects the public endpoint.
func NewDeepgramPrerecorded(apiKey, baseURL string, logger *zap.Logger) (*DeepgramPrerecorded, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Deepgram API key is required")
	}
	if baseURL == "" {
		baseURL = defaultDeepgramPrerecordedURL
	}

	return &DeepgramPrerecorded{
		apiKey:     apiKey,
		url:        baseURL,
		httpClient: &http.Client{Timeout: defaultPrerecordedTimeout},
		logger:     logger,
	}, nil
}

type prerecordedResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word  string  `json:"word"`
					Start float64 `json:"start"`
					End   float64 `json:"end"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// TranscribeFile uploads audio and returns the transcript with word timings
func (d *DeepgramPrerecorded) TranscribeFile(ctx context.Context, audioData []byte, options repositories.PrerecordedOptions) (*entities.FileTranscript, error) {
	if len(audioData) == 0 {
		return nil, fmt.Errorf("no audio data to transcribe")
	}

	model := options.Model
	if model == "" {
		model = defaultPrerecordedModel
	}
	mimeType := options.MimeType
	if mimeType == "" {
		mimeType = defaultPrerecordedMimeType
	}

	u, err := url.Parse(d.url)
	if err != nil {
		return nil, fmt.Errorf("invalid Deepgram URL: %w", err)
	}
	query := u.Query()
	query.Set("model", model)
	query.Set("smart_format", strconv.FormatBool(options.SmartFormat))
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(audioData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", mimeType)

	d.logger.Info("Transcribing audio file",
		zap.Int("audioSize", len(audioData)),
		zap.String("model", model))

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.APIError{Service: "deepgram", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed prerecordedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse transcription response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("transcription response has no alternatives")
	}

	alternative := parsed.Results.Channels[0].Alternatives[0]
	words := make([]entities.WordTiming, 0, len(alternative.Words))
	for _, w := range alternative.Words {
		words = append(words, entities.WordTiming{Start: w.Start, End: w.End, Word: w.Word})
	}

	transcript := entities.NewFileTranscript(words)
	if len(words) == 0 {
		transcript.Text = alternative.Transcript
	}

	d.logger.Info("Audio file transcribed",
		zap.Int("words", len(words)),
		zap.Duration("duration", time.Since(start)))

	return transcript, nil
}
