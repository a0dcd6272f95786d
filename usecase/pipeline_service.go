package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	defaultSearchLimit = 10
	defaultQueueSize   = 32
)

// PipelineConfig tunes the live pipeline
type PipelineConfig struct {
	Audio        repositories.AudioConfig
	MinChunkSize int
	SearchLimit  int
	QueueSize    int
}

// PipelineService runs the live audio to keywords to posts pipeline
type PipelineService struct {
	source   repositories.AudioSource
	stt      repositories.SpeechToText
	keywords *KeywordService
	search   repositories.SocialSearch
	results  repositories.ResultRepository
	notifier repositories.ResultNotifier
	config   PipelineConfig
	logger   *zap.Logger
}

// NewPipelineService creates a new pipeline. notifier may be nil.
func NewPipelineService(
	source repositories.AudioSource,
	stt repositories.SpeechToText,
	keywords *KeywordService,
	search repositories.SocialSearch,
	results repositories.ResultRepository,
	notifier repositories.ResultNotifier,
	config PipelineConfig,
	logger *zap.Logger,
) *PipelineService {
	if config.MinChunkSize <= 0 {
		config.MinChunkSize = entities.DefaultMinChunkSize
	}
	if config.SearchLimit <= 0 {
		config.SearchLimit = defaultSearchLimit
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}

	return &PipelineService{
		source:   source,
		stt:      stt,
		keywords: keywords,
		search:   search,
		results:  results,
		notifier: notifier,
		config:   config,
		logger:   logger,
	}
}

// Run blocks until the audio source is exhausted, ctx is cancelled, or one
// of the tasks fails. The first failure cancels the others and is returned.
func (s *PipelineService) Run(ctx context.Context) error {
	stream, err := s.stt.InitTranscribeStreaming(ctx, s.config.Audio)
	if err != nil {
		return fmt.Errorf("failed to open transcription stream: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	audioQueue := make(chan []byte, s.config.QueueSize)
	transcriptQueue := make(chan entities.Transcript, s.config.QueueSize)

	g.Go(func() error {
		defer close(audioQueue)
		if err := s.source.Start(ctx, audioQueue); err != nil {
			return fmt.Errorf("audio capture failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.sendAudio(ctx, stream, audioQueue)
	})

	g.Go(func() error {
		return s.receiveTranscripts(ctx, stream, transcriptQueue)
	})

	g.Go(func() error {
		return s.summarize(ctx, transcriptQueue)
	})

	s.logger.Info("Pipeline started",
		zap.Int("minChunkSize", s.config.MinChunkSize),
		zap.Int("searchLimit", s.config.SearchLimit))

	err = g.Wait()
	if err != nil {
		s.logger.Error("Pipeline stopped", zap.Error(err))
		return err
	}

	s.logger.Info("Pipeline finished")
	return nil
}

// sendAudio drains the audio queue into the transcription stream and ends
// the stream once the queue is closed
func (s *PipelineService) sendAudio(ctx context.Context, stream repositories.SpeechToTextStreaming, audioQueue <-chan []byte) error {
	for chunk := range audioQueue {
		if err := stream.Stream(chunk); err != nil {
			if errors.Is(err, domain.ErrStreamClosed) && ctx.Err() != nil {
				break
			}
			if endErr := stream.End(); endErr != nil {
				s.logger.Debug("Failed to end transcription stream", zap.Error(endErr))
			}
			return fmt.Errorf("failed to stream audio: %w", err)
		}
	}

	// Keep the capture task unblocked if we stopped early
	for range audioQueue {
	}

	if err := stream.End(); err != nil {
		return fmt.Errorf("transcription stream failed: %w", err)
	}
	return nil
}

// receiveTranscripts forwards final transcripts until the stream closes
func (s *PipelineService) receiveTranscripts(ctx context.Context, stream repositories.SpeechToTextStreaming, transcriptQueue chan<- entities.Transcript) error {
	defer close(transcriptQueue)

	for transcript := range stream.Results() {
		// Results must be drained even after cancellation so the stream can close
		if ctx.Err() != nil {
			continue
		}

		s.logger.Debug("Final transcript received", zap.String("text", transcript.Text))

		select {
		case transcriptQueue <- transcript:
		case <-ctx.Done():
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("transcription stream failed: %w", err)
	}
	return nil
}

// summarize buffers transcripts and flushes whenever the threshold is reached
func (s *PipelineService) summarize(ctx context.Context, transcriptQueue <-chan entities.Transcript) error {
	buffer := entities.NewTranscriptBuffer(s.config.MinChunkSize)

	for transcript := range transcriptQueue {
		buffer.Append(transcript.Text)
		if !buffer.Ready() {
			continue
		}

		if _, err := s.Flush(ctx, buffer.String()); err != nil {
			return err
		}
		buffer.Reset()
	}

	if buffer.Len() > 0 {
		s.logger.Debug("Discarding transcript below threshold", zap.Int("length", buffer.Len()))
	}
	return nil
}

// Flush turns a buffered transcript into keywords, searches for related posts
// and publishes the pair
func (s *PipelineService) Flush(ctx context.Context, transcript string) (entities.Result, error) {
	keywords, err := s.keywords.Generate(ctx, transcript)
	if err != nil {
		return entities.Result{}, err
	}

	tweets, err := s.search.SearchRecent(ctx, keywords, s.config.SearchLimit)
	if err != nil {
		return entities.Result{}, fmt.Errorf("social search failed: %w", err)
	}

	s.logger.Info("Transcript summarized",
		zap.String("transcript", transcript),
		zap.String("keywords", JoinKeywords(keywords)),
		zap.Int("tweets", len(tweets)))

	result := entities.NewResult(transcript, keywords, tweets)
	if err := s.results.Save(ctx, result); err != nil {
		return entities.Result{}, fmt.Errorf("failed to store result: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Notify(result)
	}

	return result, nil
}
