package repositories

import (
	"context"

	"github.com/satriahrh/topicstream/domain/entities"
)

// ResultRepository keeps the most recent published results
type ResultRepository interface {
	Save(ctx context.Context, result entities.Result) error
	// Latest returns the newest result or entities.EmptyResult
	Latest(ctx context.Context) (entities.Result, error)
	// List returns stored results oldest first
	List(ctx context.Context) ([]entities.Result, error)
}

// ResultNotifier is told about every result after it is stored
type ResultNotifier interface {
	Notify(result entities.Result)
}
