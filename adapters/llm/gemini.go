package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultTemperature    = 0.3
	defaultMaxTokens      = 256
	defaultTimeoutSeconds = 30
)

// GeminiConfig holds the Gemini keyword generator settings
type GeminiConfig struct {
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}

	// Validate temperature is in the valid range
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	if config.MaxOutputTokens < 0 {
		return fmt.Errorf("maxOutputTokens must be positive, got %d", config.MaxOutputTokens)
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// GeminiLLM implements the LargeLanguageModel interface using Google's Gemini API
type GeminiLLM struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	temperature     float32
	maxOutputTokens int
	timeout         time.Duration
}

var _ repositories.LargeLanguageModel = (*GeminiLLM)(nil)

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: config.BaseURL},
		HTTPClient:  newSSEFilterClient(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = float32(defaultTemperature)
		logger.Info("Using default temperature", zap.Float32("temperature", temperature))
	}

	maxOutputTokens := config.MaxOutputTokens
	if maxOutputTokens == 0 {
		maxOutputTokens = defaultMaxTokens
		logger.Info("Using default maxOutputTokens", zap.Int("maxOutputTokens", maxOutputTokens))
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
		logger.Info("Using default timeoutSeconds", zap.Int("timeoutSeconds", timeoutSeconds))
	}

	return &GeminiLLM{
		client:          client,
		logger:          logger,
		model:           model,
		temperature:     temperature,
		maxOutputTokens: maxOutputTokens,
		timeout:         time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// CompleteStream streams a completion. System messages become the system
// instruction; the rest is sent as conversation contents.
func (g *GeminiLLM) CompleteStream(ctx context.Context, messages []repositories.ChatMessage) (<-chan string, <-chan error) {
	deltas := make(chan string)
	errs := make(chan error, 1)

	system, contents := convertToGeminiFormat(messages)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(g.maxOutputTokens),
	}
	if system != nil {
		config.SystemInstruction = system
	}

	go func() {
		defer close(deltas)
		defer close(errs)

		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		for response, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				errs <- g.wrapError(err)
				return
			}

			text := responseText(response)
			if text == "" {
				continue
			}

			select {
			case deltas <- text:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return deltas, errs
}

func (g *GeminiLLM) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		g.logger.Error("Gemini completion rejected",
			zap.Int("statusCode", apiErr.Code),
			zap.String("message", apiErr.Message))
		return &domain.APIError{Service: "gemini", StatusCode: apiErr.Code, Body: apiErr.Message}
	}

	g.logger.Error("Gemini stream failed", zap.Error(err))
	return fmt.Errorf("gemini completion failed: %w", err)
}

func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text
}

// convertToGeminiFormat splits out the system instruction and converts the
// remaining messages to Gemini contents
func convertToGeminiFormat(messages []repositories.ChatMessage) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case repositories.SystemRole:
			system = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case repositories.AssistantRole:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return system, contents
}
