package entities

import (
	"time"

	"github.com/google/uuid"
)

// Tweet is the subset of a social post exposed to clients
type Tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Result pairs a flushed transcript with the posts found for its keywords
type Result struct {
	ID          string     `json:"id,omitempty"`
	Transcript  string     `json:"transcript"`
	Keywords    []string   `json:"keywords,omitempty"`
	Tweets      []Tweet    `json:"tweets"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// EmptyResult is served before the first flush completes
func EmptyResult() Result {
	return Result{
		Transcript: "",
		Tweets:     []Tweet{},
	}
}

// NewResult creates a result stamped with a fresh ID and publish time
func NewResult(transcript string, keywords []string, tweets []Tweet) Result {
	now := time.Now()

	copied := make([]Tweet, 0, len(tweets))
	for _, tweet := range tweets {
		copied = append(copied, Tweet{ID: tweet.ID, Text: tweet.Text})
	}

	return Result{
		ID:          uuid.NewString(),
		Transcript:  transcript,
		Keywords:    append([]string(nil), keywords...),
		Tweets:      copied,
		PublishedAt: &now,
	}
}

// IsEmpty reports whether nothing has been published into this result
func (r Result) IsEmpty() bool {
	return r.Transcript == "" && len(r.Tweets) == 0
}
