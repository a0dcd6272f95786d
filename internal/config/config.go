package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderDeepgram = "deepgram"
	ProviderGoogle   = "google"
	ProviderXAI      = "xai"
	ProviderGemini   = "gemini"
	ProviderMock     = "mock"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Audio     AudioConfig     `yaml:"audio"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Deepgram  DeepgramConfig  `yaml:"deepgram"`
	Google    GoogleConfig    `yaml:"google"`
	XAI       XAIConfig       `yaml:"xai"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Video     VideoConfig     `yaml:"video"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ProvidersConfig struct {
	STT string `yaml:"stt"`
	LLM string `yaml:"llm"`
}

type AudioConfig struct {
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	Language        string `yaml:"language"`
}

type PipelineConfig struct {
	MinChunkSize int `yaml:"min_chunk_size"`
	SearchLimit  int `yaml:"search_limit"`
	HistorySize  int `yaml:"history_size"`
	QueueSize    int `yaml:"queue_size"`
}

type DeepgramConfig struct {
	APIKey          string        `yaml:"api_key"`
	URL             string        `yaml:"url"`
	RestURL         string        `yaml:"rest_url"`
	KeepAlivePeriod time.Duration `yaml:"keep_alive_period"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

type XAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type TwitterConfig struct {
	BearerToken     string        `yaml:"bearer_token"`
	BaseURL         string        `yaml:"base_url"`
	RequestInterval time.Duration `yaml:"request_interval"`
}

type VideoConfig struct {
	OutputDir     string `yaml:"output_dir"`
	Quality       string `yaml:"quality"`
	ChunkSize     int    `yaml:"chunk_size"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env, then the optional YAML file at path, then environment
// overrides. Defaults are applied by Validate.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// Environment only
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Deepgram.APIKey = getEnv("DG_API_KEY", c.Deepgram.APIKey)
	c.XAI.APIKey = getEnv("GROK_API_KEY", c.XAI.APIKey)
	c.Twitter.BearerToken = getEnv("TWITTER_BEARER_TOKEN", c.Twitter.BearerToken)
	c.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Google.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Google.CredentialsFile)
	c.Providers.STT = strings.ToLower(getEnv("STT_PROVIDER", c.Providers.STT))
	c.Providers.LLM = strings.ToLower(getEnv("LLM_PROVIDER", c.Providers.LLM))
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)

	if v := getEnv("MIN_CHUNK_SIZE", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MIN_CHUNK_SIZE: %s", v)
		}
		c.Pipeline.MinChunkSize = n
	}
	return nil
}

// Validate fills defaults and checks the keys required by the selected providers
func (c *Config) Validate() error {
	c.ApplyDefaults()

	if c.Pipeline.MinChunkSize < 0 {
		return fmt.Errorf("pipeline.min_chunk_size must be positive, got %d", c.Pipeline.MinChunkSize)
	}
	if c.Pipeline.SearchLimit < 0 {
		return fmt.Errorf("pipeline.search_limit must be positive, got %d", c.Pipeline.SearchLimit)
	}

	switch c.Providers.STT {
	case ProviderDeepgram:
		if c.Deepgram.APIKey == "" {
			return fmt.Errorf("DG_API_KEY is required")
		}
	case ProviderGoogle:
		if c.Google.CredentialsFile == "" {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is required")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown stt provider: %s", c.Providers.STT)
	}

	switch c.Providers.LLM {
	case ProviderXAI:
		if c.XAI.APIKey == "" {
			return fmt.Errorf("GROK_API_KEY is required")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown llm provider: %s", c.Providers.LLM)
	}

	return nil
}

// ApplyDefaults fills every unset field without checking credentials
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:5001"
	}
	if c.Providers.STT == "" {
		c.Providers.STT = ProviderDeepgram
	}
	if c.Providers.LLM == "" {
		c.Providers.LLM = ProviderXAI
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 16000
	}
	if c.Pipeline.MinChunkSize == 0 {
		c.Pipeline.MinChunkSize = 100
	}
	if c.Pipeline.SearchLimit == 0 {
		c.Pipeline.SearchLimit = 10
	}
	if c.Pipeline.HistorySize == 0 {
		c.Pipeline.HistorySize = 10
	}
	if c.Pipeline.QueueSize == 0 {
		c.Pipeline.QueueSize = 64
	}
	if c.Deepgram.URL == "" {
		c.Deepgram.URL = "wss://api.deepgram.com/v1/listen"
	}
	if c.Deepgram.RestURL == "" {
		c.Deepgram.RestURL = "https://api.deepgram.com/v1/listen"
	}
	if c.XAI.BaseURL == "" {
		c.XAI.BaseURL = "https://api.x.ai/v1"
	}
	if c.XAI.Model == "" {
		c.XAI.Model = "grok-2-public"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Twitter.BaseURL == "" {
		c.Twitter.BaseURL = "https://api.twitter.com"
	}
	if c.Video.OutputDir == "" {
		c.Video.OutputDir = "videos"
	}
	if c.Video.Quality == "" {
		c.Video.Quality = "720"
	}
	if c.Video.ChunkSize == 0 {
		c.Video.ChunkSize = 1000
	}
	if c.Video.MaxConcurrent == 0 {
		c.Video.MaxConcurrent = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// RequireTwitter reports a missing bearer token for commands that search posts
func (c *Config) RequireTwitter() error {
	if c.Twitter.BearerToken == "" {
		return fmt.Errorf("TWITTER_BEARER_TOKEN is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
