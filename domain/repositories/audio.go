package repositories

import "context"

// AudioSource produces raw PCM chunks until ctx is done or input runs out
type AudioSource interface {
	Start(ctx context.Context, out chan<- []byte) error
}
