package domain

import (
	"errors"
	"fmt"
)

// ErrStreamClosed is returned when audio is sent after a stream ended
var ErrStreamClosed = errors.New("stream closed")

// APIError describes a non-success response from a remote service
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s request failed (HTTP %d): %s", e.Service, e.StatusCode, e.Body)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}
