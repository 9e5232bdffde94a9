package metadata

import "fmt"

// FailReason tags a FetchError with the class of failure.
type FailReason string

// Failure classes surfaced by adapters and the scheduler.
const (
	ReasonRateLimited  FailReason = "rate-limited"
	ReasonNotFound     FailReason = "not-found"
	ReasonNetwork      FailReason = "network"
	ReasonParseFailure FailReason = "parse-failure"
	ReasonUnsupported  FailReason = "unsupported"
)

// FetchError is the typed failure returned by source adapters. The resolver
// converts it into a fallback record; it never reaches external callers.
type FetchError struct {
	Reason FailReason
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err with a failure reason for the given URL.
func NewFetchError(reason FailReason, url string, err error) *FetchError {
	return &FetchError{Reason: reason, URL: url, Err: err}
}
