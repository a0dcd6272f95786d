package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	// DefaultVideoChunkSize is the number of characters sent per request when
	// extracting keywords from a full video transcript
	DefaultVideoChunkSize = 1000

	keywordSystemPrompt = "You are an AI assistant that generates relevant keywords from a given transcript."
	keywordPrompt       = "Generate 2-3 relevant keywords or key phrases from the following transcript. Provide only the keywords, separated by commas:\n\n%s"
	chunkKeywordPrompt  = "Generate 2-3 relevant keywords or key phrases from the following transcript chunk. Provide only the keywords, separated by commas:\n\n%s"
)

// KeywordService turns transcript text into search keywords
type KeywordService struct {
	llm       repositories.LargeLanguageModel
	chunkSize int
	logger    *zap.Logger
}

// NewKeywordService creates a keyword generator. chunkSize applies to
// GenerateChunked; non-positive means DefaultVideoChunkSize.
func NewKeywordService(llm repositories.LargeLanguageModel, chunkSize int, logger *zap.Logger) *KeywordService {
	if chunkSize <= 0 {
		chunkSize = DefaultVideoChunkSize
	}
	return &KeywordService{
		llm:       llm,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Generate asks the model for 2-3 keywords describing transcript
func (s *KeywordService) Generate(ctx context.Context, transcript string) ([]string, error) {
	response, err := Complete(ctx, s.llm, []repositories.ChatMessage{
		{Role: repositories.SystemRole, Content: keywordSystemPrompt},
		{Role: repositories.UserRole, Content: fmt.Sprintf(keywordPrompt, transcript)},
	})
	if err != nil {
		return nil, fmt.Errorf("keyword generation failed: %w", err)
	}

	keywords := ParseKeywords(response)
	s.logger.Info("Keywords generated", zap.Strings("keywords", keywords))
	return keywords, nil
}

// GenerateChunked splits a long transcript, asks for keywords per chunk and
// merges them without duplicates, keeping first-seen order
func (s *KeywordService) GenerateChunked(ctx context.Context, transcript string) ([]string, error) {
	chunks := SplitChunks(transcript, s.chunkSize)

	seen := make(map[string]struct{})
	var all []string

	for i, chunk := range chunks {
		response, err := Complete(ctx, s.llm, []repositories.ChatMessage{
			{Role: repositories.SystemRole, Content: keywordSystemPrompt},
			{Role: repositories.UserRole, Content: fmt.Sprintf(chunkKeywordPrompt, chunk)},
		})
		if err != nil {
			return nil, fmt.Errorf("keyword generation failed for chunk %d: %w", i, err)
		}

		keywords := ParseKeywords(response)
		s.logger.Debug("Chunk keywords generated",
			zap.Int("chunk", i),
			zap.Strings("keywords", keywords))

		for _, keyword := range keywords {
			if _, ok := seen[keyword]; ok {
				continue
			}
			seen[keyword] = struct{}{}
			all = append(all, keyword)
		}
	}

	s.logger.Info("Transcript keywords generated",
		zap.Int("chunks", len(chunks)),
		zap.Int("keywords", len(all)))

	return all, nil
}

// Complete drains a streaming completion into a single string
func Complete(ctx context.Context, llm repositories.LargeLanguageModel, messages []repositories.ChatMessage) (string, error) {
	deltas, errs := llm.CompleteStream(ctx, messages)

	var builder strings.Builder
	for delta := range deltas {
		builder.WriteString(delta)
	}

	if err := <-errs; err != nil {
		return "", err
	}
	return builder.String(), nil
}

// ParseKeywords splits a comma-separated model reply into trimmed keywords
func ParseKeywords(response string) []string {
	parts := strings.Split(response, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if keyword := strings.TrimSpace(part); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

// JoinKeywords renders keywords the way they are displayed and logged
func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, ", ")
}

// SplitChunks splits text into pieces of at most size characters
func SplitChunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}

	chunks := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	runes := []rune(text)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
