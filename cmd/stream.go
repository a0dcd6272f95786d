package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/topicstream/adapters"
	"github.com/satriahrh/topicstream/adapters/audio"
	"github.com/satriahrh/topicstream/adapters/media"
	"github.com/satriahrh/topicstream/domain/repositories"
	"github.com/satriahrh/topicstream/internal/api"
	"github.com/satriahrh/topicstream/internal/config"
	"github.com/satriahrh/topicstream/internal/executor"
	"github.com/satriahrh/topicstream/internal/websocket"
	"github.com/satriahrh/topicstream/usecase"
)

const shutdownTimeout = 10 * time.Second

var streamFile string

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Transcribe live audio and publish related posts",
	Long: `Capture the default microphone (or replay --file in real time), stream it
to the transcription socket and publish a transcript/posts pair every time
enough text has been buffered. Results are served on /get_data and /ws.`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

func init() {
	streamCmd.Flags().StringVarP(&streamFile, "file", "f", "", "Replay an audio or video file instead of the microphone")
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	speechToText, err := newSpeechToText(cfg, logger)
	if err != nil {
		return err
	}
	model, err := newLanguageModel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	search, err := newTwitterClient(cfg, logger)
	if err != nil {
		return err
	}

	results := adapters.NewMemoryResultRepository(cfg.Pipeline.HistorySize)
	hub := websocket.NewHub(results, logger)
	server := api.NewServer(hub, results, logger)

	pipeline := usecase.NewPipelineService(
		newAudioSource(cfg, logger),
		speechToText,
		usecase.NewKeywordService(model, cfg.Video.ChunkSize, logger),
		search,
		results,
		hub,
		usecase.PipelineConfig{
			Audio: repositories.AudioConfig{
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
				Encoding:   "linear16",
				Language:   cfg.Audio.Language,
			},
			MinChunkSize: cfg.Pipeline.MinChunkSize,
			SearchLimit:  cfg.Pipeline.SearchLimit,
			QueueSize:    cfg.Pipeline.QueueSize,
		},
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Server started", zap.String("addr", cfg.Server.Addr))
		if err := server.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := pipeline.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("Audio source finished, still serving results until interrupted")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Stream stopped", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}

func newAudioSource(cfg *config.Config, logger *zap.Logger) repositories.AudioSource {
	audioConfig := audio.Config{
		SampleRate:      cfg.Audio.SampleRate,
		Channels:        cfg.Audio.Channels,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	}

	if streamFile == "" {
		return audio.NewMicrophone(audioConfig, logger)
	}

	logger.Info("Replaying file instead of microphone", zap.String("path", streamFile))
	return audio.NewFileSource(streamFile, audioConfig, true, media.NewFFmpeg(executor.New(), logger), logger)
}
