package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/usecase"
)

var (
	videoOutputDir string
	videoQuality   string
)

var videoCmd = &cobra.Command{
	Use:   "video <url-or-path>",
	Short: "Transcribe a video and print its keywords",
	Long: `Download a video with yt-dlp (or copy a local file) into its own directory,
extract the audio with ffmpeg, transcribe it with the prerecorded API, write
transcript.txt next to the video and print keywords generated per chunk.`,
	Args: cobra.ExactArgs(1),
	RunE: runVideo,
}

func init() {
	videoCmd.Flags().StringVarP(&videoOutputDir, "out", "o", "", "Directory that receives one folder per video")
	videoCmd.Flags().StringVarP(&videoQuality, "quality", "q", "", "Maximum video resolution for downloads, e.g. 720")
}

func runVideo(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if videoOutputDir != "" {
		cfg.Video.OutputDir = videoOutputDir
	}
	if videoQuality != "" {
		cfg.Video.Quality = videoQuality
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := newVideoService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	result, err := service.Process(ctx, args[0], cfg.Video.OutputDir, cfg.Video.Quality)
	if err != nil {
		logger.Error("Video processing failed", zap.String("source", args[0]), zap.Error(err))
		return err
	}

	printVideoResult(cmd, result)
	return nil
}

func printVideoResult(cmd *cobra.Command, result *usecase.VideoResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title:      %s\n", result.Title)
	fmt.Fprintf(out, "Video:      %s\n", result.VideoPath)
	fmt.Fprintf(out, "Transcript: %s\n", result.TranscriptPath)
	fmt.Fprintf(out, "Keywords:   %s\n", strings.Join(result.Keywords, ", "))
}
