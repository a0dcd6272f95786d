package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const transcriptFileName = "transcript.txt"

// VideoDownloader fetches remote videos
type VideoDownloader interface {
	Title(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url, dir, quality string) error
}

// AudioExtractor pulls the audio track out of a video
type AudioExtractor interface {
	ExtractMP3(ctx context.Context, videoPath, audioPath string) error
}

// VideoResult describes everything produced for one video
type VideoResult struct {
	Title          string                   `json:"title"`
	VideoPath      string                   `json:"video_path"`
	AudioPath      string                   `json:"audio_path"`
	TranscriptPath string                   `json:"transcript_path"`
	Transcript     *entities.FileTranscript `json:"transcript"`
	Keywords       []string                 `json:"keywords"`
}

// VideoService transcribes whole videos and extracts their keywords
type VideoService struct {
	downloader VideoDownloader
	extractor  AudioExtractor
	stt        repositories.PrerecordedSpeechToText
	keywords   *KeywordService
	logger     *zap.Logger
}

// NewVideoService creates a new video service
func NewVideoService(
	downloader VideoDownloader,
	extractor AudioExtractor,
	stt repositories.PrerecordedSpeechToText,
	keywords *KeywordService,
	logger *zap.Logger,
) *VideoService {
	return &VideoService{
		downloader: downloader,
		extractor:  extractor,
		stt:        stt,
		keywords:   keywords,
		logger:     logger,
	}
}

// Process prepares the video under outputDir, transcribes it, writes the
// transcript next to it and generates keywords
func (s *VideoService) Process(ctx context.Context, source, outputDir, quality string) (*VideoResult, error) {
	videoPath, title, err := s.PrepareVideo(ctx, source, outputDir, quality)
	if err != nil {
		return nil, err
	}

	videoDir := filepath.Dir(videoPath)
	audioPath := filepath.Join(videoDir, title+".mp3")
	if strings.EqualFold(filepath.Ext(videoPath), ".mp3") {
		// ffmpeg refuses to overwrite its own input
		audioPath = videoPath
		s.logger.Info("Source is already mp3, skipping extraction", zap.String("audioPath", audioPath))
	} else {
		if err := s.extractor.ExtractMP3(ctx, videoPath, audioPath); err != nil {
			return nil, err
		}
		s.logger.Info("Audio extracted", zap.String("audioPath", audioPath))
	}

	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	transcript, err := s.stt.TranscribeFile(ctx, audioData, repositories.PrerecordedOptions{
		Model:       "nova-2",
		SmartFormat: true,
		MimeType:    "audio/mpeg",
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	transcriptPath := filepath.Join(videoDir, transcriptFileName)
	if err := os.WriteFile(transcriptPath, []byte(transcript.Text), 0o644); err != nil {
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}

	s.logger.Info("Video transcribed",
		zap.String("title", title),
		zap.Int("words", len(transcript.Words)),
		zap.String("transcriptPath", transcriptPath))

	keywords, err := s.keywords.GenerateChunked(ctx, transcript.Text)
	if err != nil {
		return nil, err
	}

	return &VideoResult{
		Title:          title,
		VideoPath:      videoPath,
		AudioPath:      audioPath,
		TranscriptPath: transcriptPath,
		Transcript:     transcript,
		Keywords:       keywords,
	}, nil
}

// PrepareVideo places the video in outputDir/<title>/ and returns its path and
// title. URLs are downloaded, replacing files from an earlier run; local files
// are copied.
func (s *VideoService) PrepareVideo(ctx context.Context, source, outputDir, quality string) (string, string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if !IsURL(source) {
		return s.copyLocal(source, outputDir)
	}

	title, err := s.downloader.Title(ctx, source)
	if err != nil {
		return "", "", err
	}

	videoDir := filepath.Join(outputDir, sanitizeTitle(title))
	if err := resetDir(videoDir); err != nil {
		return "", "", err
	}

	if err := s.downloader.Download(ctx, source, videoDir, quality); err != nil {
		return "", "", err
	}

	matches, err := filepath.Glob(filepath.Join(videoDir, "*.*"))
	if err != nil || len(matches) == 0 {
		return "", "", fmt.Errorf("no video downloaded into %s", videoDir)
	}

	s.logger.Info("Video downloaded", zap.String("title", title), zap.String("videoPath", matches[0]))
	return matches[0], sanitizeTitle(title), nil
}

func (s *VideoService) copyLocal(source, outputDir string) (string, string, error) {
	title := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	videoDir := filepath.Join(outputDir, title)
	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create video directory: %w", err)
	}

	videoPath := filepath.Join(videoDir, filepath.Base(source))
	if samePath(source, videoPath) {
		return videoPath, title, nil
	}
	if err := copyFile(source, videoPath); err != nil {
		return "", "", err
	}

	s.logger.Info("Video copied", zap.String("title", title), zap.String("videoPath", videoPath))
	return videoPath, title, nil
}

// IsURL reports whether source should be downloaded rather than copied
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func sanitizeTitle(title string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "\x00", "")
	return strings.TrimSpace(replacer.Replace(title))
}

// resetDir creates dir or removes the regular files left in it
func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.Type().IsRegular() {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("failed to clear %s: %w", dir, err)
			}
		}
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create video copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy video: %w", err)
	}
	return out.Close()
}
