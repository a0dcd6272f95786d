package api

import "github.com/satriahrh/topicstream/domain/entities"

// DataResponse is the latest transcript with its related posts
type DataResponse struct {
	Transcript string           `json:"transcript"`
	Tweets     []entities.Tweet `json:"tweets"`
}

// HistoryResponse lists recent results, oldest first
type HistoryResponse struct {
	Results []entities.Result `json:"results"`
	Count   int               `json:"count"`
}

// HealthResponse reports server liveness
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Subscribers int    `json:"subscribers"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
