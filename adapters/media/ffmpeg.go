package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/internal/executor"
)

// FFmpeg extracts audio tracks from media files
type FFmpeg struct {
	executor executor.Executor
	logger   *zap.Logger
}

// NewFFmpeg creates an ffmpeg wrapper
func NewFFmpeg(exec executor.Executor, logger *zap.Logger) *FFmpeg {
	return &FFmpeg{executor: exec, logger: logger}
}

// ExtractWAV converts the input to mono 16-bit PCM WAV at sampleRate, written
// next to the input
func (f *FFmpeg) ExtractWAV(ctx context.Context, inputPath string, sampleRate int) (string, error) {
	audioPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_temp.wav"

	args := []string{
		"-i", inputPath,
		"-vn",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		audioPath,
	}

	f.logger.Info("Extracting audio", zap.String("input", inputPath), zap.Int("sampleRate", sampleRate))

	if _, err := f.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	return audioPath, nil
}

// ExtractMP3 writes the best-quality audio track of videoPath to audioPath
func (f *FFmpeg) ExtractMP3(ctx context.Context, videoPath, audioPath string) error {
	args := []string{
		"-i", videoPath,
		"-q:a", "0",
		"-map", "a",
		"-y",
		audioPath,
	}

	f.logger.Info("Extracting mp3", zap.String("input", videoPath), zap.String("output", audioPath))

	if _, err := f.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg extract mp3: %w", err)
	}
	return nil
}
