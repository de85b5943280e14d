package jikan

import (
	"fmt"

	"github.com/desertthunder/anitrack/internal/shared"
)

// StatusError is a non-2xx response from one attempt.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: GET %s returned status %d", shared.ErrAPIRequest, e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

// FetchError reports a request that failed on every attempt of its retry budget.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int // last HTTP status, 0 for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%v: GET %s after %d attempt(s): %v", shared.ErrFetchFailed, e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{shared.ErrFetchFailed, e.Err} }

// RateLimited reports whether the last attempt was rejected with 429 Too Many Requests.
func (e *FetchError) RateLimited() bool { return e.StatusCode == 429 }

// NotFound reports whether the last attempt returned 404.
func (e *FetchError) NotFound() bool { return e.StatusCode == 404 }
