package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pipeline stage failures.
var (
	ErrResolution = errors.New("website detection failed")
	ErrDiscovery  = errors.New("no authors discovered")
)

// Job lifecycle.
var (
	ErrInvalidOutlet = errors.New("invalid outlet name")
	ErrJobNotFound   = errors.New("job not found")
	ErrJobCancelled  = errors.New("job cancelled")
)

// Search and fetch.
var (
	ErrSearchBudget  = errors.New("search call budget exhausted")
	ErrNoResults     = errors.New("no search results")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrEmptyResponse = errors.New("empty response body")
	ErrNoFetcher     = errors.New("no fetcher available for request")
)

// FetchError is returned by every Fetcher. Retryable marks transient
// failures: 429, 5xx, resets and timeouts below the request deadline.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool

	// RetryAfter is the server's requested backoff on 429.
	RetryAfter time.Duration
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("fetch ")
	b.WriteString(e.URL)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " [%d]", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsRetryable reports whether the same request may succeed later.
func (e *FetchError) IsRetryable() bool { return e.Retryable }

// StorageError carries the backend and operation of a failed store call.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	op := e.Backend
	if e.Op != "" {
		op += " " + e.Op
	}
	return op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// StageError aborts a discovery job. Stage is "resolve" or "discover".
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + " stage: " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
