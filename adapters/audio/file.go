package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain/repositories"
)

// Converter turns any media file into a 16-bit PCM WAV file
type Converter interface {
	ExtractWAV(ctx context.Context, inputPath string, sampleRate int) (string, error)
}

// FileSource replays a media file as if it were captured live
type FileSource struct {
	path      string
	config    Config
	realtime  bool
	converter Converter
	logger    *zap.Logger
}

var _ repositories.AudioSource = (*FileSource)(nil)

// NewFileSource creates a source for path. Non-WAV input needs a converter.
// With realtime set, chunks are paced to the audio duration they carry.
func NewFileSource(path string, config Config, realtime bool, converter Converter, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:      path,
		config:    config.withDefaults(),
		realtime:  realtime,
		converter: converter,
		logger:    logger,
	}
}

// Start decodes the file and sends PCM chunks until the file ends or ctx is done
func (f *FileSource) Start(ctx context.Context, out chan<- []byte) error {
	wavPath, cleanup, err := f.prepare(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	file, err := os.Open(wavPath)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return fmt.Errorf("invalid WAV file: %s", wavPath)
	}
	if decoder.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d, expected 16", decoder.BitDepth)
	}
	if int(decoder.SampleRate) != f.config.SampleRate {
		f.logger.Warn("WAV sample rate differs from configured rate",
			zap.Uint32("fileRate", decoder.SampleRate),
			zap.Int("configuredRate", f.config.SampleRate))
	}

	numChannels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	buf := &goaudio.IntBuffer{
		Data:   make([]int, f.config.FramesPerBuffer*numChannels),
		Format: &goaudio.Format{NumChannels: numChannels, SampleRate: sampleRate},
	}

	var ticker *time.Ticker
	if f.realtime {
		ticker = time.NewTicker(time.Duration(f.config.FramesPerBuffer) * time.Second / time.Duration(sampleRate))
		defer ticker.Stop()
	}

	f.logger.Info("Replaying audio file",
		zap.String("path", f.path),
		zap.Int("sampleRate", sampleRate),
		zap.Int("channels", numChannels),
		zap.Bool("realtime", f.realtime))

	chunks := 0
	for {
		n, err := decoder.PCMBuffer(buf)
		if n > 0 {
			select {
			case out <- encodeInts(buf.Data[:n]):
				chunks++
			case <-ctx.Done():
				return nil
			}
		}

		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to decode audio: %w", err)
		}
		if n == 0 || err != nil {
			f.logger.Info("Audio file finished", zap.Int("chunks", chunks))
			return nil
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (f *FileSource) prepare(ctx context.Context) (string, func(), error) {
	noop := func() {}
	if strings.EqualFold(filepath.Ext(f.path), ".wav") {
		return f.path, noop, nil
	}
	if f.converter == nil {
		return "", noop, fmt.Errorf("cannot read %s without an audio converter", f.path)
	}

	wavPath, err := f.converter.ExtractWAV(ctx, f.path, f.config.SampleRate)
	if err != nil {
		return "", noop, fmt.Errorf("failed to convert %s: %w", f.path, err)
	}

	return wavPath, func() {
		if err := os.Remove(wavPath); err != nil {
			f.logger.Debug("Failed to remove temporary audio", zap.Error(err))
		}
	}, nil
}
