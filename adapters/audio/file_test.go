package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap/zaptest"
)

func writeTestWAV(t *testing.T, path string, samples []int) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create WAV: %v", err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, 16000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Data:           samples,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("Failed to close encoder: %v", err)
	}
}

func TestFileSourceReplaysWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.wav")

	samples := make([]int, 2500)
	for i := range samples {
		samples[i] = i - 1250
	}
	writeTestWAV(t, path, samples)

	source := NewFileSource(path, Config{SampleRate: 16000, Channels: 1, FramesPerBuffer: 1000}, false, nil, zaptest.NewLogger(t))

	out := make(chan []byte, 10)
	if err := source.Start(context.Background(), out); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	close(out)

	var chunks [][]byte
	total := 0
	for chunk := range out {
		chunks = append(chunks, chunk)
		total += len(chunk)
	}

	if len(chunks) != 3 {
		t.Errorf("Expected 3 chunks, got %d", len(chunks))
	}
	if total != len(samples)*2 {
		t.Errorf("Expected %d bytes, got %d", len(samples)*2, total)
	}

	first := int16(binary.LittleEndian.Uint16(chunks[0][0:2]))
	if first != -1250 {
		t.Errorf("Expected first sample -1250, got %d", first)
	}
}

type fakeConverter struct {
	wavPath string
	calls   int
}

func (f *fakeConverter) ExtractWAV(ctx context.Context, inputPath string, sampleRate int) (string, error) {
	f.calls++
	if f.wavPath == "" {
		return "", errors.New("ffmpeg missing")
	}
	return f.wavPath, nil
}

func TestFileSourceConvertsMedia(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "converted.wav")
	writeTestWAV(t, wavPath, make([]int, 100))

	converter := &fakeConverter{wavPath: wavPath}
	source := NewFileSource(filepath.Join(dir, "talk.mp4"), Config{FramesPerBuffer: 50}, false, converter, zaptest.NewLogger(t))

	out := make(chan []byte, 10)
	if err := source.Start(context.Background(), out); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if converter.calls != 1 {
		t.Errorf("Expected converter to be called once, got %d", converter.calls)
	}
	if len(out) != 2 {
		t.Errorf("Expected 2 chunks, got %d", len(out))
	}
	if _, err := os.Stat(wavPath); !os.IsNotExist(err) {
		t.Error("Expected converted WAV to be removed")
	}
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()
	out := make(chan []byte, 1)

	noConverter := NewFileSource(filepath.Join(dir, "talk.mp4"), Config{}, false, nil, zaptest.NewLogger(t))
	if err := noConverter.Start(context.Background(), out); err == nil {
		t.Error("Expected error without converter")
	}

	failing := NewFileSource(filepath.Join(dir, "talk.mp4"), Config{}, false, &fakeConverter{}, zaptest.NewLogger(t))
	if err := failing.Start(context.Background(), out); err == nil {
		t.Error("Expected conversion error")
	}

	garbage := filepath.Join(dir, "garbage.wav")
	os.WriteFile(garbage, []byte("not a wav file"), 0o644)
	invalid := NewFileSource(garbage, Config{}, false, nil, zaptest.NewLogger(t))
	if err := invalid.Start(context.Background(), out); err == nil {
		t.Error("Expected invalid WAV error")
	}
}

func TestFileSourceStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.wav")
	writeTestWAV(t, path, make([]int, 16000))

	source := NewFileSource(path, Config{FramesPerBuffer: 1600}, true, nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered and never read, so Start must return via ctx
	out := make(chan []byte)
	if err := source.Start(ctx, out); err != nil {
		t.Fatalf("Expected clean stop, got %v", err)
	}
}

func TestEncodePCM16(t *testing.T) {
	data := EncodePCM16([]int16{1, -1, 256})
	expected := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x01}

	if len(data) != len(expected) {
		t.Fatalf("Expected %d bytes, got %d", len(expected), len(data))
	}
	for i := range expected {
		if data[i] != expected[i] {
			t.Errorf("Byte %d: expected %#x, got %#x", i, expected[i], data[i])
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	config := Config{}.withDefaults()
	if config.SampleRate != 16000 || config.Channels != 1 || config.FramesPerBuffer != 16000 {
		t.Errorf("Unexpected defaults %+v", config)
	}
}
