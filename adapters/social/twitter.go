package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	defaultBaseURL         = "https://api.twitter.com"
	defaultRequestInterval = time.Second
	defaultRequestTimeout  = 30 * time.Second

	recentSearchPath = "/2/tweets/search/recent"

	// Bounds the recent search endpoint accepts for max_results
	minSearchResults = 10
	maxSearchResults = 100
)

// Config holds the social search client settings
type Config struct {
	BearerToken     string        `yaml:"bearer_token"`
	BaseURL         string        `yaml:"base_url"`
	RequestInterval time.Duration `yaml:"request_interval"`
}

// TwitterClient talks to the X API v2 with a bearer token
type TwitterClient struct {
	bearerToken string
	baseURL     string
	httpClient  *http.Client
	streamHTTP  *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
}

var (
	_ repositories.SocialSearch = (*TwitterClient)(nil)
	_ repositories.StreamRules  = (*TwitterClient)(nil)
)

// NewTwitterClient creates a new X API client
func NewTwitterClient(config Config, logger *zap.Logger) (*TwitterClient, error) {
	if config.BearerToken == "" {
		return nil, fmt.Errorf("bearer token is required")
	}

	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	interval := config.RequestInterval
	if interval == 0 {
		interval = defaultRequestInterval
		logger.Info("Using default request interval", zap.Duration("interval", interval))
	}

	return &TwitterClient{
		bearerToken: config.BearerToken,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
		streamHTTP:  &http.Client{},
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		logger:      logger,
	}, nil
}

type searchResponse struct {
	Data []entities.Tweet `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

// BuildSearchQuery joins keywords into a single OR query
func BuildSearchQuery(keywords []string) string {
	return strings.Join(keywords, " OR ")
}

// SearchRecent returns up to limit recent posts matching any keyword
func (c *TwitterClient) SearchRecent(ctx context.Context, keywords []string, limit int) ([]entities.Tweet, error) {
	query := BuildSearchQuery(keywords)
	if strings.TrimSpace(query) == "" {
		c.logger.Warn("Skipping search without keywords")
		return []entities.Tweet{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(clampResults(limit)))

	body, err := c.do(ctx, http.MethodGet, recentSearchPath+"?"+params.Encode(), nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	tweets := parsed.Data
	if tweets == nil {
		tweets = []entities.Tweet{}
	}
	if limit > 0 && len(tweets) > limit {
		tweets = tweets[:limit]
	}

	c.logger.Info("Recent search completed",
		zap.String("query", query),
		zap.Int("results", len(tweets)))

	return tweets, nil
}

func clampResults(limit int) int {
	if limit < minSearchResults {
		return minSearchResults
	}
	if limit > maxSearchResults {
		return maxSearchResults
	}
	return limit
}

// do sends a rate-limited request and returns the body when the status matches
func (c *TwitterClient) do(ctx context.Context, method, path string, payload io.Reader, expectedStatus int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		c.logger.Error("X API request failed",
			zap.String("path", path),
			zap.Int("statusCode", resp.StatusCode))
		return nil, &domain.APIError{Service: "x", StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

func (c *TwitterClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("User-Agent", "topicstream")
}
