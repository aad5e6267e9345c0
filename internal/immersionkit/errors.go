package immersionkit

import (
	"errors"
	"fmt"
)

// ErrRateLimited indicates the catalog rate limit was exceeded
var ErrRateLimited = errors.New("catalog API rate limit exceeded")

// ErrNotFound indicates the requested resource does not exist
var ErrNotFound = errors.New("catalog resource not found")

// ErrInvalidArguments wraps validation failures of SearchArgs
var ErrInvalidArguments = errors.New("invalid search arguments")

// ErrInsecureURL is returned for media links that are not https
var ErrInsecureURL = errors.New("media URL must use https")

// ServerError represents a 5xx error from the catalog
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog server error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog server error: HTTP %d: %s", e.StatusCode, e.Body)
}
