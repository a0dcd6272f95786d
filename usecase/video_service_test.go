package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/topicstream/adapters/llm"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

type fakeDownloader struct {
	title     string
	downloads int
}

func (f *fakeDownloader) Title(ctx context.Context, url string) (string, error) {
	return f.title, nil
}

func (f *fakeDownloader) Download(ctx context.Context, url, dir, quality string) error {
	f.downloads++
	return os.WriteFile(filepath.Join(dir, f.title+".mp4"), []byte("video"), 0o644)
}

type fakeExtractor struct{}

func (fakeExtractor) ExtractMP3(ctx context.Context, videoPath, audioPath string) error {
	if videoPath == audioPath {
		return fmt.Errorf("ffmpeg: output %s same as input", audioPath)
	}
	return os.WriteFile(audioPath, []byte("mp3"), 0o644)
}

type fakePrerecorded struct {
	options repositories.PrerecordedOptions
	audio   []byte
}

func (f *fakePrerecorded) TranscribeFile(ctx context.Context, audioData []byte, options repositories.PrerecordedOptions) (*entities.FileTranscript, error) {
	f.options = options
	f.audio = audioData
	return entities.NewFileTranscript([]entities.WordTiming{
		{Start: 0, End: 0.5, Word: "Rockets"},
		{Start: 0.6, End: 1.0, Word: "fly."},
	}), nil
}

func newTestVideoService(t *testing.T, downloader *fakeDownloader, speech *fakePrerecorded) *VideoService {
	logger := zaptest.NewLogger(t)
	keywords := NewKeywordService(llm.NewMockLLM("rockets, flight"), 0, logger)
	return NewVideoService(downloader, fakeExtractor{}, speech, keywords, logger)
}

func TestVideoServiceProcessLocalFile(t *testing.T) {
	input := filepath.Join(t.TempDir(), "launch day.mp4")
	if err := os.WriteFile(input, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	outputDir := t.TempDir()

	speech := &fakePrerecorded{}
	service := newTestVideoService(t, &fakeDownloader{}, speech)

	result, err := service.Process(context.Background(), input, outputDir, "720p")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	videoDir := filepath.Join(outputDir, "launch day")
	if result.VideoPath != filepath.Join(videoDir, "launch day.mp4") {
		t.Errorf("Unexpected video path %s", result.VideoPath)
	}
	if result.AudioPath != filepath.Join(videoDir, "launch day.mp3") {
		t.Errorf("Unexpected audio path %s", result.AudioPath)
	}

	saved, err := os.ReadFile(filepath.Join(videoDir, "transcript.txt"))
	if err != nil {
		t.Fatalf("Transcript not saved: %v", err)
	}
	if string(saved) != "Rockets fly." {
		t.Errorf("Unexpected transcript %q", saved)
	}

	if speech.options.Model != "nova-2" || !speech.options.SmartFormat {
		t.Errorf("Unexpected transcription options %+v", speech.options)
	}
	if string(speech.audio) != "mp3" {
		t.Errorf("Expected extracted audio to be uploaded, got %q", speech.audio)
	}

	if !reflect.DeepEqual(result.Keywords, []string{"rockets", "flight"}) {
		t.Errorf("Unexpected keywords %v", result.Keywords)
	}
	if result.Transcript.Words[0].Word != "rockets" {
		t.Errorf("Expected normalized word timings, got %+v", result.Transcript.Words)
	}
}

func TestVideoServicePrepareURLClearsOldFiles(t *testing.T) {
	outputDir := t.TempDir()
	videoDir := filepath.Join(outputDir, "Big Launch")
	os.MkdirAll(videoDir, 0o755)
	os.WriteFile(filepath.Join(videoDir, "stale.mp4"), []byte("old"), 0o644)

	downloader := &fakeDownloader{title: "Big Launch"}
	service := newTestVideoService(t, downloader, &fakePrerecorded{})

	videoPath, title, err := service.PrepareVideo(context.Background(), "https://example.com/watch?v=1", outputDir, "1080p")
	if err != nil {
		t.Fatalf("PrepareVideo failed: %v", err)
	}

	if title != "Big Launch" {
		t.Errorf("Unexpected title %q", title)
	}
	if videoPath != filepath.Join(videoDir, "Big Launch.mp4") {
		t.Errorf("Unexpected video path %s", videoPath)
	}
	if _, err := os.Stat(filepath.Join(videoDir, "stale.mp4")); !os.IsNotExist(err) {
		t.Error("Expected stale file to be removed")
	}
	if downloader.downloads != 1 {
		t.Errorf("Expected one download, got %d", downloader.downloads)
	}
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://youtube.com/watch?v=1": true,
		"http://example.com/video":      true,
		"/tmp/video.mp4":                false,
		"video.mp4":                     false,
	}
	for input, expected := range tests {
		if IsURL(input) != expected {
			t.Errorf("IsURL(%q) = %v, want %v", input, !expected, expected)
		}
	}
}

func TestSanitizeTitle(t *testing.T) {
	if got := sanitizeTitle(" AC/DC live "); got != "AC_DC live" {
		t.Errorf("Unexpected sanitized title %q", got)
	}
}

func TestVideoServiceProcessLocalMP3(t *testing.T) {
	input := filepath.Join(t.TempDir(), "podcast.mp3")
	if err := os.WriteFile(input, []byte("original audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	outputDir := t.TempDir()

	speech := &fakePrerecorded{}
	service := newTestVideoService(t, &fakeDownloader{}, speech)

	result, err := service.Process(context.Background(), input, outputDir, "720")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	copied := filepath.Join(outputDir, "podcast", "podcast.mp3")
	if result.AudioPath != copied || result.VideoPath != copied {
		t.Errorf("Expected the copied mp3 to be used as audio, got video %s audio %s", result.VideoPath, result.AudioPath)
	}
	if string(speech.audio) != "original audio" {
		t.Errorf("Expected the source audio to be uploaded, got %q", speech.audio)
	}
}
