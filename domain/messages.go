package domain

import (
	"time"

	"github.com/satriahrh/topicstream/domain/entities"
)

// Message types pushed to websocket subscribers
const (
	MessageTypeResult   = "result"
	MessageTypeSnapshot = "snapshot"
)

// ResultMessage carries a published result to a subscriber
type ResultMessage struct {
	Type      string          `json:"type"`
	Result    entities.Result `json:"result"`
	Timestamp string          `json:"timestamp"`
}

// NewResultMessage wraps result with the given message type
func NewResultMessage(messageType string, result entities.Result) ResultMessage {
	return ResultMessage{
		Type:      messageType,
		Result:    result,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
