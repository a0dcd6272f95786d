package media

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/internal/executor"
)

// YTDLP downloads remote videos
type YTDLP struct {
	executor executor.Executor
	logger   *zap.Logger
}

// NewYTDLP creates a yt-dlp wrapper
func NewYTDLP(exec executor.Executor, logger *zap.Logger) *YTDLP {
	return &YTDLP{executor: exec, logger: logger}
}

// Title looks up the video title
func (y *YTDLP) Title(ctx context.Context, url string) (string, error) {
	out, err := y.executor.Execute(ctx, "yt-dlp", url, "--get-title")
	if err != nil {
		return "", fmt.Errorf("yt-dlp get title: %w", err)
	}

	title := strings.TrimSpace(out)
	if title == "" {
		return "", fmt.Errorf("yt-dlp returned an empty title for %s", url)
	}
	return title, nil
}

// Download saves the video into dir, preferring the given resolution
// ("720" or "720p")
func (y *YTDLP) Download(ctx context.Context, url, dir, quality string) error {
	quality = strings.TrimSuffix(strings.ToLower(quality), "p")

	args := []string{url, "-P", dir, "--output", "%(title)s.%(ext)s"}
	if quality != "" {
		args = append(args, "-S", "res:"+quality)
	}

	y.logger.Info("Downloading video", zap.String("url", url), zap.String("quality", quality))

	if _, err := y.executor.Execute(ctx, "yt-dlp", args...); err != nil {
		return fmt.Errorf("yt-dlp download: %w", err)
	}
	return nil
}
