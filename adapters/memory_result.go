package adapters

import (
	"context"
	"errors"
	"sync"

	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

// DefaultHistorySize is how many results are kept when no size is given
const DefaultHistorySize = 10

// MemoryResultRepository keeps the most recent results in a fixed-size ring
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results []entities.Result
	start   int
	count   int
}

var _ repositories.ResultRepository = (*MemoryResultRepository)(nil)

// NewMemoryResultRepository creates a repository holding up to size results
func NewMemoryResultRepository(size int) *MemoryResultRepository {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &MemoryResultRepository{
		results: make([]entities.Result, size),
	}
}

// Save appends a result, evicting the oldest one when full
func (m *MemoryResultRepository) Save(ctx context.Context, result entities.Result) error {
	if result.Tweets == nil {
		return errors.New("result tweets cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	capacity := len(m.results)
	if m.count < capacity {
		m.results[(m.start+m.count)%capacity] = copyResult(result)
		m.count++
		return nil
	}

	m.results[m.start] = copyResult(result)
	m.start = (m.start + 1) % capacity
	return nil
}

// Latest returns the newest result or the empty result
func (m *MemoryResultRepository) Latest(ctx context.Context) (entities.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.count == 0 {
		return entities.EmptyResult(), nil
	}

	newest := (m.start + m.count - 1) % len(m.results)
	return copyResult(m.results[newest]), nil
}

// List returns stored results oldest first
func (m *MemoryResultRepository) List(ctx context.Context) ([]entities.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return copies to prevent external modifications
	list := make([]entities.Result, 0, m.count)
	for i := 0; i < m.count; i++ {
		list = append(list, copyResult(m.results[(m.start+i)%len(m.results)]))
	}
	return list, nil
}

func copyResult(result entities.Result) entities.Result {
	copied := result
	copied.Tweets = append([]entities.Tweet{}, result.Tweets...)
	if result.Keywords != nil {
		copied.Keywords = append([]string(nil), result.Keywords...)
	}
	return copied
}
