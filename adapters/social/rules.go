package social

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
)

const (
	rulesPath  = "/2/tweets/search/stream/rules"
	streamPath = "/2/tweets/search/stream"

	// DefaultRuleTag labels rules created from keywords
	DefaultRuleTag = "Keyword posts"
)

type rule struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value"`
	Tag   string `json:"tag,omitempty"`
}

// BuildRule turns keywords into a filtered-stream rule excluding reposts
func BuildRule(keywords []string) string {
	var cleaned []string
	for _, keyword := range keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			cleaned = append(cleaned, keyword)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "(" + strings.Join(cleaned, " OR ") + ") -is:retweet"
}

// AddRules adds one rule matching any of the keywords
func (c *TwitterClient) AddRules(ctx context.Context, keywords []string, tag string) error {
	value := BuildRule(keywords)
	if value == "" {
		return fmt.Errorf("at least one keyword is required")
	}
	if tag == "" {
		tag = DefaultRuleTag
	}

	payload, err := json.Marshal(map[string][]rule{
		"add": {{Value: value, Tag: tag}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, rulesPath, bytes.NewReader(payload), http.StatusCreated); err != nil {
		return fmt.Errorf("cannot add rules: %w", err)
	}

	c.logger.Info("Stream rule added", zap.String("rule", value), zap.String("tag", tag))
	return nil
}

// DeleteAllRules removes every filtered-stream rule and reports how many
func (c *TwitterClient) DeleteAllRules(ctx context.Context) (int, error) {
	body, err := c.do(ctx, http.MethodGet, rulesPath, nil, http.StatusOK)
	if err != nil {
		return 0, fmt.Errorf("cannot get rules: %w", err)
	}

	var existing struct {
		Data []rule `json:"data"`
	}
	if err := json.Unmarshal(body, &existing); err != nil {
		return 0, fmt.Errorf("failed to parse rules: %w", err)
	}

	if len(existing.Data) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(existing.Data))
	for _, r := range existing.Data {
		ids = append(ids, r.ID)
	}

	payload, err := json.Marshal(map[string]map[string][]string{
		"delete": {"ids": ids},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode rule ids: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, rulesPath, bytes.NewReader(payload), http.StatusOK); err != nil {
		return 0, fmt.Errorf("cannot delete rules: %w", err)
	}

	c.logger.Info("Stream rules deleted", zap.Int("count", len(ids)))
	return len(ids), nil
}

// ReadStream reads newline-delimited posts from the filtered stream until
// limit posts arrived, the stream ends, or ctx is done
func (c *TwitterClient) ReadStream(ctx context.Context, limit int) ([]entities.Tweet, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+streamPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.streamHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.APIError{Service: "x", StatusCode: resp.StatusCode, Body: string(body)}
	}

	tweets := []entities.Tweet{}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		// Empty lines are keep-alive signals
		if len(line) == 0 {
			continue
		}

		var event struct {
			Data entities.Tweet `json:"data"`
		}
		if err := json.Unmarshal(line, &event); err != nil {
			c.logger.Warn("Skipping malformed stream line", zap.Error(err))
			continue
		}
		if event.Data.ID == "" {
			continue
		}

		tweets = append(tweets, event.Data)
		if limit > 0 && len(tweets) >= limit {
			return tweets, nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return tweets, fmt.Errorf("stream read failed: %w", err)
	}
	return tweets, nil
}
