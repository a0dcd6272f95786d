package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DG_API_KEY", "GROK_API_KEY", "TWITTER_BEARER_TOKEN", "GEMINI_API_KEY",
		"GOOGLE_APPLICATION_CREDENTIALS", "STT_PROVIDER", "LLM_PROVIDER",
		"SERVER_ADDR", "LOG_LEVEL", "MIN_CHUNK_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "deepgram and xai",
			config: Config{
				Deepgram: DeepgramConfig{APIKey: "dg"},
				XAI:      XAIConfig{APIKey: "grok"},
			},
			wantErr: false,
		},
		{
			name:    "missing deepgram key",
			config:  Config{XAI: XAIConfig{APIKey: "grok"}},
			wantErr: true,
		},
		{
			name:    "missing grok key",
			config:  Config{Deepgram: DeepgramConfig{APIKey: "dg"}},
			wantErr: true,
		},
		{
			name: "google without credentials",
			config: Config{
				Providers: ProvidersConfig{STT: ProviderGoogle, LLM: ProviderMock},
			},
			wantErr: true,
		},
		{
			name: "gemini with key",
			config: Config{
				Providers: ProvidersConfig{STT: ProviderMock, LLM: ProviderGemini},
				Gemini:    GeminiConfig{APIKey: "gem"},
			},
			wantErr: false,
		},
		{
			name: "mock providers need no keys",
			config: Config{
				Providers: ProvidersConfig{STT: ProviderMock, LLM: ProviderMock},
			},
			wantErr: false,
		},
		{
			name: "unknown stt provider",
			config: Config{
				Providers: ProvidersConfig{STT: "whisper", LLM: ProviderMock},
			},
			wantErr: true,
		},
		{
			name: "unknown llm provider",
			config: Config{
				Providers: ProvidersConfig{STT: ProviderMock, LLM: "llama"},
			},
			wantErr: true,
		},
		{
			name: "negative chunk size",
			config: Config{
				Providers: ProvidersConfig{STT: ProviderMock, LLM: ProviderMock},
				Pipeline:  PipelineConfig{MinChunkSize: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{Providers: ProvidersConfig{STT: ProviderMock, LLM: ProviderMock}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:5001" {
		t.Errorf("Expected default addr 127.0.0.1:5001, got %s", cfg.Server.Addr)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 || cfg.Audio.FramesPerBuffer != 16000 {
		t.Errorf("Unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Pipeline.MinChunkSize != 100 {
		t.Errorf("Expected min chunk size 100, got %d", cfg.Pipeline.MinChunkSize)
	}
	if cfg.Pipeline.SearchLimit != 10 || cfg.Pipeline.HistorySize != 10 {
		t.Errorf("Unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.XAI.Model != "grok-2-public" || cfg.XAI.BaseURL != "https://api.x.ai/v1" {
		t.Errorf("Unexpected xai defaults: %+v", cfg.XAI)
	}
	if cfg.Deepgram.URL != "wss://api.deepgram.com/v1/listen" {
		t.Errorf("Unexpected deepgram url: %s", cfg.Deepgram.URL)
	}
	if cfg.Video.ChunkSize != 1000 {
		t.Errorf("Expected video chunk size 1000, got %d", cfg.Video.ChunkSize)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: 0.0.0.0:9000
providers:
  stt: mock
  llm: xai
xai:
  api_key: from-yaml
  timeout: 30s
twitter:
  request_interval: 2s
pipeline:
  min_chunk_size: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GROK_API_KEY", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Expected addr from yaml, got %s", cfg.Server.Addr)
	}
	if cfg.XAI.APIKey != "from-env" {
		t.Errorf("Expected environment to override yaml, got %s", cfg.XAI.APIKey)
	}
	if cfg.XAI.Timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %s", cfg.XAI.Timeout)
	}
	if cfg.Twitter.RequestInterval != 2*time.Second {
		t.Errorf("Expected request interval 2s, got %s", cfg.Twitter.RequestInterval)
	}
	if cfg.Pipeline.MinChunkSize != 50 {
		t.Errorf("Expected min chunk size 50, got %d", cfg.Pipeline.MinChunkSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DG_API_KEY", "dg")
	t.Setenv("STT_PROVIDER", "Deepgram")
	t.Setenv("MIN_CHUNK_SIZE", "200")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Deepgram.APIKey != "dg" {
		t.Errorf("Expected DG_API_KEY to be loaded, got %q", cfg.Deepgram.APIKey)
	}
	if cfg.Providers.STT != ProviderDeepgram {
		t.Errorf("Expected provider to be lower-cased, got %q", cfg.Providers.STT)
	}
	if cfg.Pipeline.MinChunkSize != 200 {
		t.Errorf("Expected min chunk size 200, got %d", cfg.Pipeline.MinChunkSize)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIN_CHUNK_SIZE", "lots")

	if _, err := Load(""); err == nil {
		t.Error("Expected error for invalid MIN_CHUNK_SIZE")
	}

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed yaml")
	}
}

func TestRequireTwitter(t *testing.T) {
	cfg := Config{}
	if err := cfg.RequireTwitter(); err == nil {
		t.Error("Expected error without bearer token")
	}
	cfg.Twitter.BearerToken = "token"
	if err := cfg.RequireTwitter(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
