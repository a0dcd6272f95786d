package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/adapters/llm"
	"github.com/satriahrh/topicstream/adapters/stt"
	"github.com/satriahrh/topicstream/internal/config"
)

func mockConfig() *config.Config {
	cfg := &config.Config{
		Providers: config.ProvidersConfig{STT: config.ProviderMock, LLM: config.ProviderMock},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestNewSpeechToText(t *testing.T) {
	logger := zap.NewNop()

	cfg := mockConfig()
	provider, err := newSpeechToText(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &stt.MockSpeechToText{}, provider)

	cfg.Providers.STT = config.ProviderDeepgram
	cfg.Deepgram.APIKey = "dg"
	provider, err = newSpeechToText(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &stt.DeepgramSpeechToText{}, provider)

	cfg.Providers.STT = config.ProviderGoogle
	provider, err = newSpeechToText(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &stt.GoogleSpeechToText{}, provider)

	cfg.Providers.STT = "whisper"
	_, err = newSpeechToText(cfg, logger)
	assert.Error(t, err)
}

func TestNewLanguageModel(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	cfg := mockConfig()
	model, err := newLanguageModel(ctx, cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &llm.MockLLM{}, model)

	cfg.Providers.LLM = config.ProviderXAI
	cfg.XAI.APIKey = "grok"
	model, err = newLanguageModel(ctx, cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &llm.XAILLM{}, model)

	cfg.Providers.LLM = "llama"
	_, err = newLanguageModel(ctx, cfg, logger)
	assert.Error(t, err)
}

func TestNewTwitterClientRequiresToken(t *testing.T) {
	cfg := mockConfig()

	_, err := newTwitterClient(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.Twitter.BearerToken = "token"
	client, err := newTwitterClient(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewVideoServiceRequiresDeepgramKey(t *testing.T) {
	cfg := mockConfig()

	_, err := newVideoService(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.Deepgram.APIKey = "dg"
	service, err := newVideoService(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, service)
}

func TestNewAudioSource(t *testing.T) {
	cfg := mockConfig()

	streamFile = ""
	assert.NotNil(t, newAudioSource(cfg, zap.NewNop()))

	streamFile = "talk.mp4"
	defer func() { streamFile = "" }()
	assert.NotNil(t, newAudioSource(cfg, zap.NewNop()))
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"stream", "video", "watch", "rules", "subscribe"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	sub := map[string]bool{}
	for _, cmd := range rulesCmd.Commands() {
		sub[cmd.Name()] = true
	}
	for _, want := range []string{"add", "clear", "read"} {
		assert.True(t, sub[want], "missing rules command %s", want)
	}

	assert.NotNil(t, streamCmd.Flags().Lookup("file"))
	assert.NotNil(t, videoCmd.Flags().Lookup("quality"))
}
