package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Process every media file dropped into a directory",
	Long: `Watch a directory and run the video flow (audio extraction, transcription,
keywords) for each new audio or video file, a few files at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&videoOutputDir, "out", "o", "", "Directory that receives one folder per video")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if videoOutputDir != "" {
		cfg.Video.OutputDir = videoOutputDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := newVideoService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	handler := func(ctx context.Context, path string) error {
		result, err := service.Process(ctx, path, cfg.Video.OutputDir, cfg.Video.Quality)
		if err != nil {
			return err
		}
		logger.Info("Video processed",
			zap.String("title", result.Title),
			zap.String("transcriptPath", result.TranscriptPath),
			zap.Strings("keywords", result.Keywords))
		return nil
	}

	w, err := watcher.New(args[0], handler, cfg.Video.MaxConcurrent, logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
