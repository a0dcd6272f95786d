package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/adapters/llm"
	"github.com/satriahrh/topicstream/adapters/media"
	"github.com/satriahrh/topicstream/adapters/social"
	"github.com/satriahrh/topicstream/adapters/stt"
	"github.com/satriahrh/topicstream/domain/repositories"
	"github.com/satriahrh/topicstream/internal/config"
	"github.com/satriahrh/topicstream/internal/executor"
	"github.com/satriahrh/topicstream/internal/logging"
	"github.com/satriahrh/topicstream/usecase"
)

const mockKeywordReply = "launch, weather, space"

// setup loads configuration and builds the logger. With validate set, the
// keys of the selected providers must be present.
func setup(validate bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid config: %w", err)
		}
	} else {
		cfg.ApplyDefaults()
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newSpeechToText(cfg *config.Config, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.Providers.STT {
	case config.ProviderDeepgram:
		return stt.NewDeepgramSpeechToText(stt.DeepgramConfig{
			APIKey:          cfg.Deepgram.APIKey,
			URL:             cfg.Deepgram.URL,
			KeepAlivePeriod: cfg.Deepgram.KeepAlivePeriod,
		}, logger)
	case config.ProviderGoogle:
		return stt.NewGoogleSpeechToText(cfg.Google.CredentialsFile, logger), nil
	case config.ProviderMock:
		return stt.NewMockSpeechToText(logger), nil
	default:
		return nil, fmt.Errorf("unknown stt provider: %s", cfg.Providers.STT)
	}
}

func newLanguageModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	switch cfg.Providers.LLM {
	case config.ProviderXAI:
		return llm.NewXAILLM(llm.XAIConfig{
			APIKey:  cfg.XAI.APIKey,
			BaseURL: cfg.XAI.BaseURL,
			Model:   cfg.XAI.Model,
			Timeout: cfg.XAI.Timeout,
		}, logger)
	case config.ProviderGemini:
		return llm.NewGeminiLLM(ctx, llm.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Model:   cfg.Gemini.Model,
		}, logger)
	case config.ProviderMock:
		return llm.NewMockLLM(mockKeywordReply), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Providers.LLM)
	}
}

func newTwitterClient(cfg *config.Config, logger *zap.Logger) (*social.TwitterClient, error) {
	if err := cfg.RequireTwitter(); err != nil {
		return nil, err
	}
	return social.NewTwitterClient(social.Config{
		BearerToken:     cfg.Twitter.BearerToken,
		BaseURL:         cfg.Twitter.BaseURL,
		RequestInterval: cfg.Twitter.RequestInterval,
	}, logger)
}

func newVideoService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*usecase.VideoService, error) {
	if cfg.Deepgram.APIKey == "" {
		return nil, fmt.Errorf("DG_API_KEY is required for video transcription")
	}

	prerecorded, err := stt.NewDeepgramPrerecorded(cfg.Deepgram.APIKey, cfg.Deepgram.RestURL, logger)
	if err != nil {
		return nil, err
	}

	model, err := newLanguageModel(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	exec := executor.New()
	return usecase.NewVideoService(
		media.NewYTDLP(exec, logger),
		media.NewFFmpeg(exec, logger),
		prerecorded,
		usecase.NewKeywordService(model, cfg.Video.ChunkSize, logger),
		logger,
	), nil
}
