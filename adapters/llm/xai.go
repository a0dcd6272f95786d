package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	defaultXAIBaseURL = "https://api.x.ai/v1"
	defaultXAIModel   = "grok-2-public"
	defaultXAITimeout = 60 * time.Second
)

// XAIConfig holds the xAI keyword generator settings
type XAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// XAILLM streams chat completions from xAI's OpenAI-compatible endpoint
type XAILLM struct {
	client  *openai.Client
	logger  *zap.Logger
	model   string
	timeout time.Duration
}

var _ repositories.LargeLanguageModel = (*XAILLM)(nil)

// NewXAILLM creates a new xAI client
func NewXAILLM(config XAIConfig, logger *zap.Logger) (*XAILLM, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("xAI API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultXAIBaseURL
		logger.Info("Using default xAI base URL", zap.String("baseURL", baseURL))
	}

	model := config.Model
	if model == "" {
		model = defaultXAIModel
		logger.Info("Using default model", zap.String("model", model))
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultXAITimeout
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = newSSEFilterClient(logger)

	return &XAILLM{
		client:  openai.NewClientWithConfig(clientConfig),
		logger:  logger,
		model:   model,
		timeout: timeout,
	}, nil
}

// CompleteStream sends the messages with stream=true and forwards content deltas
func (x *XAILLM) CompleteStream(ctx context.Context, messages []repositories.ChatMessage) (<-chan string, <-chan error) {
	deltas := make(chan string)
	errs := make(chan error, 1)

	request := openai.ChatCompletionRequest{
		Model:    x.model,
		Messages: convertToOpenAIFormat(messages),
		Stream:   true,
	}

	go func() {
		defer close(deltas)
		defer close(errs)

		ctx, cancel := context.WithTimeout(ctx, x.timeout)
		defer cancel()

		stream, err := x.client.CreateChatCompletionStream(ctx, request)
		if err != nil {
			errs <- x.wrapError(err)
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- x.wrapError(err)
				return
			}

			if len(response.Choices) == 0 || response.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case deltas <- response.Choices[0].Delta.Content:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return deltas, errs
}

func (x *XAILLM) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		x.logger.Error("xAI completion rejected",
			zap.Int("statusCode", apiErr.HTTPStatusCode),
			zap.String("message", apiErr.Message))
		return &domain.APIError{Service: "xai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		x.logger.Error("xAI completion failed", zap.Int("statusCode", requestErr.HTTPStatusCode), zap.Error(err))
		return &domain.APIError{Service: "xai", StatusCode: requestErr.HTTPStatusCode, Body: requestErr.Error()}
	}

	x.logger.Error("xAI completion failed", zap.Error(err))
	return fmt.Errorf("xai completion failed: %w", err)
}

func convertToOpenAIFormat(messages []repositories.ChatMessage) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case repositories.SystemRole:
			role = openai.ChatMessageRoleSystem
		case repositories.AssistantRole:
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return converted
}
