package audio

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	defaultSampleRate      = 16000
	defaultChannels        = 1
	defaultFramesPerBuffer = 16000
)

// Config describes the PCM format produced by a source
type Config struct {
	SampleRate      int `yaml:"sample_rate"`
	Channels        int `yaml:"channels"`
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.Channels <= 0 {
		c.Channels = defaultChannels
	}
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = defaultFramesPerBuffer
	}
	return c
}

// Microphone captures the default input device
type Microphone struct {
	config Config
	logger *zap.Logger
}

var _ repositories.AudioSource = (*Microphone)(nil)

// NewMicrophone creates a capture source for the default input device
func NewMicrophone(config Config, logger *zap.Logger) *Microphone {
	return &Microphone{
		config: config.withDefaults(),
		logger: logger,
	}
}

// Start captures until ctx is done. Buffers are handed to out without
// blocking the audio callback; when out is full the buffer is dropped.
func (m *Microphone) Start(ctx context.Context, out chan<- []byte) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}
	defer portaudio.Terminate()

	var captured, dropped atomic.Int64

	stream, err := portaudio.OpenDefaultStream(m.config.Channels, 0, float64(m.config.SampleRate), m.config.FramesPerBuffer,
		func(in []int16) {
			chunk := EncodePCM16(in)
			select {
			case out <- chunk:
				captured.Add(1)
			default:
				dropped.Add(1)
			}
		})
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	m.logger.Info("Microphone capture started",
		zap.Int("sampleRate", m.config.SampleRate),
		zap.Int("channels", m.config.Channels),
		zap.Int("framesPerBuffer", m.config.FramesPerBuffer))

	<-ctx.Done()

	if err := stream.Stop(); err != nil {
		m.logger.Warn("Failed to stop input stream", zap.Error(err))
	}

	m.logger.Info("Microphone capture stopped",
		zap.Int64("captured", captured.Load()),
		zap.Int64("dropped", dropped.Load()))

	return nil
}
