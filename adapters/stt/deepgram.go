package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	defaultDeepgramLiveURL = "wss://api.deepgram.com/v1/listen"

	// Deepgram drops idle sockets after about ten seconds without audio
	defaultKeepAlivePeriod = 8 * time.Second

	// Time allowed to write a frame to the socket
	writeWait = 10 * time.Second

	// Time allowed for pending transcripts to arrive after CloseStream
	closeWait = 5 * time.Second

	sendBufferSize    = 64
	resultsBufferSize = 64
)

var (
	keepAliveMessage   = []byte(`{"type":"KeepAlive"}`)
	closeStreamMessage = []byte(`{"type":"CloseStream"}`)
)

// DeepgramConfig holds the live transcription socket settings
type DeepgramConfig struct {
	APIKey          string        `yaml:"api_key"`
	URL             string        `yaml:"url"`
	KeepAlivePeriod time.Duration `yaml:"keep_alive_period"`
}

// ValidateDeepgramConfig validates the DeepgramConfig
func ValidateDeepgramConfig(config DeepgramConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Deepgram API key is required")
	}
	if config.KeepAlivePeriod < 0 {
		return fmt.Errorf("keep alive period must be positive, got %s", config.KeepAlivePeriod)
	}
	return nil
}

// DeepgramSpeechToText implements SpeechToText over Deepgram's live websocket API
type DeepgramSpeechToText struct {
	apiKey    string
	url       string
	keepAlive time.Duration
	dialer    *websocket.Dialer
	logger    *zap.Logger
}

var _ repositories.SpeechToText = (*DeepgramSpeechToText)(nil)

// NewDeepgramSpeechToText creates a live transcription client
func NewDeepgramSpeechToText(config DeepgramConfig, logger *zap.Logger) (*DeepgramSpeechToText, error) {
	if err := ValidateDeepgramConfig(config); err != nil {
		return nil, err
	}

	liveURL := config.URL
	if liveURL == "" {
		liveURL = defaultDeepgramLiveURL
		logger.Info("Using default Deepgram URL", zap.String("url", liveURL))
	}

	keepAlive := config.KeepAlivePeriod
	if keepAlive == 0 {
		keepAlive = defaultKeepAlivePeriod
	}

	return &DeepgramSpeechToText{
		apiKey:    config.APIKey,
		url:       liveURL,
		keepAlive: keepAlive,
		dialer:    websocket.DefaultDialer,
		logger:    logger,
	}, nil
}

// InitTranscribeStreaming dials the transcription socket and starts its pumps
func (d *DeepgramSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	streamURL, err := d.streamURL(config)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+d.apiKey)

	conn, resp, err := d.dialer.DialContext(ctx, streamURL, header)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, &domain.APIError{Service: "deepgram", StatusCode: resp.StatusCode, Body: string(body)}
		}
		return nil, fmt.Errorf("failed to connect to transcription socket: %w", err)
	}

	d.logger.Info("Transcription socket connected",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	stream := &DeepgramStream{
		conn:       conn,
		logger:     d.logger,
		keepAlive:  d.keepAlive,
		send:       make(chan []byte, sendBufferSize),
		results:    make(chan entities.Transcript, resultsBufferSize),
		closing:    make(chan struct{}),
		kill:       make(chan struct{}),
		readDone:   make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	go stream.readPump()
	go stream.writePump(ctx)

	return stream, nil
}

func (d *DeepgramSpeechToText) streamURL(config repositories.AudioConfig) (string, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram URL: %w", err)
	}

	encoding := strings.ToLower(config.Encoding)
	if encoding == "" {
		encoding = "linear16"
	}

	query := u.Query()
	query.Set("punctuate", "true")
	query.Set("encoding", encoding)
	query.Set("sample_rate", strconv.Itoa(config.SampleRate))
	if config.Channels > 1 {
		query.Set("channels", strconv.Itoa(config.Channels))
	}
	if config.Language != "" {
		query.Set("language", config.Language)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// deepgramMessage is the subset of a live response the pipeline reads
type deepgramMessage struct {
	Type     string  `json:"type"`
	IsFinal  bool    `json:"is_final"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Channel  struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// DeepgramStream is one live transcription session. Audio goes out through
// writePump and transcripts come back through readPump, so the socket only
// ever has one writer and one reader.
type DeepgramStream struct {
	conn      *websocket.Conn
	logger    *zap.Logger
	keepAlive time.Duration

	send    chan []byte
	results chan entities.Transcript

	closing    chan struct{}
	kill       chan struct{}
	readDone   chan struct{}
	writerDone chan struct{}

	closeOnce sync.Once
	killOnce  sync.Once

	mu  sync.Mutex
	err error
}

// Stream queues a chunk of audio for the socket
func (s *DeepgramStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	select {
	case <-s.closing:
		return domain.ErrStreamClosed
	default:
	}

	chunk := make([]byte, len(data))
	copy(chunk, data)

	select {
	case s.send <- chunk:
		return nil
	case <-s.closing:
		return domain.ErrStreamClosed
	case <-s.readDone:
		if err := s.Err(); err != nil {
			return err
		}
		return domain.ErrStreamClosed
	}
}

// Results yields final, non-empty transcripts
func (s *DeepgramStream) Results() <-chan entities.Transcript {
	return s.results
}

// Err returns the first failure seen on the socket
func (s *DeepgramStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// End asks Deepgram to flush and close, then waits for the socket to finish
func (s *DeepgramStream) End() error {
	s.closeOnce.Do(func() { close(s.closing) })

	timer := time.NewTimer(closeWait)
	select {
	case <-s.readDone:
	case <-timer.C:
		s.logger.Warn("Timed out waiting for transcription socket to close")
	}
	timer.Stop()

	s.abort()
	<-s.readDone
	<-s.writerDone

	return s.Err()
}

func (s *DeepgramStream) abort() {
	s.closeOnce.Do(func() { close(s.closing) })
	s.killOnce.Do(func() {
		close(s.kill)
		s.conn.Close()
	})
}

func (s *DeepgramStream) isClosing() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *DeepgramStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// readPump forwards final transcripts until the socket closes
func (s *DeepgramStream) readPump() {
	defer close(s.readDone)
	defer close(s.results)

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || s.isClosing() {
				s.logger.Debug("Transcription socket closed")
				return
			}
			s.setErr(fmt.Errorf("failed to receive transcript: %w", err))
			s.logger.Error("Transcription socket read error", zap.Error(err))
			return
		}

		var msg deepgramMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn("Skipping malformed transcription message", zap.Error(err))
			continue
		}

		transcript, ok := msg.finalTranscript()
		if !ok {
			continue
		}

		select {
		case s.results <- transcript:
		case <-s.kill:
			return
		}
	}
}

func (m deepgramMessage) finalTranscript() (entities.Transcript, bool) {
	if m.Type != "" && m.Type != "Results" {
		return entities.Transcript{}, false
	}
	if !m.IsFinal || len(m.Channel.Alternatives) == 0 {
		return entities.Transcript{}, false
	}

	alternative := m.Channel.Alternatives[0]
	if strings.TrimSpace(alternative.Transcript) == "" {
		return entities.Transcript{}, false
	}

	return entities.Transcript{
		Text:       alternative.Transcript,
		IsFinal:    true,
		Confidence: alternative.Confidence,
		Start:      m.Start,
		Duration:   m.Duration,
	}, true
}

// writePump sends queued audio and keep-alives. On End it drains the queue
// and sends CloseStream so Deepgram returns the remaining transcripts.
func (s *DeepgramStream) writePump(ctx context.Context) {
	ticker := time.NewTicker(s.keepAlive)
	defer func() {
		ticker.Stop()
		close(s.writerDone)
	}()

	for {
		select {
		case data := <-s.send:
			if err := s.write(websocket.BinaryMessage, data); err != nil {
				s.fail(fmt.Errorf("failed to send audio: %w", err))
				return
			}

		case <-ticker.C:
			if err := s.write(websocket.TextMessage, keepAliveMessage); err != nil {
				s.fail(fmt.Errorf("failed to send keep alive: %w", err))
				return
			}

		case <-s.closing:
			s.drain()
			if err := s.write(websocket.TextMessage, closeStreamMessage); err != nil {
				s.logger.Debug("Failed to send close stream", zap.Error(err))
			}
			return

		case <-s.readDone:
			return

		case <-ctx.Done():
			s.abort()
			return
		}
	}
}

func (s *DeepgramStream) drain() {
	for {
		select {
		case data := <-s.send:
			if err := s.write(websocket.BinaryMessage, data); err != nil {
				s.logger.Debug("Failed to flush audio", zap.Error(err))
				return
			}
		default:
			return
		}
	}
}

func (s *DeepgramStream) write(messageType int, data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

func (s *DeepgramStream) fail(err error) {
	if s.isClosing() {
		return
	}
	s.setErr(err)
	s.logger.Error("Transcription socket write error", zap.Error(err))
	s.abort()
}
