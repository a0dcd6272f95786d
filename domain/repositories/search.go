package repositories

import (
	"context"

	"github.com/satriahrh/topicstream/domain/entities"
)

// SocialSearch looks up recent posts matching keywords
type SocialSearch interface {
	SearchRecent(ctx context.Context, keywords []string, limit int) ([]entities.Tweet, error)
}

// StreamRules manages filtered-stream rules and reads the filtered stream
type StreamRules interface {
	AddRules(ctx context.Context, keywords []string, tag string) error
	DeleteAllRules(ctx context.Context) (int, error)
	ReadStream(ctx context.Context, limit int) ([]entities.Tweet, error)
}
