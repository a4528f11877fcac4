package retry

import "fmt"

// StatusError reports an HTTP response that ended a call without a usable
// body: a client error on any attempt, or a server error once retries ran
// out.
type StatusError struct {
	Code   int
	Status string
}

// Error implements the `error` interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.Status)
}

// Temporary reports whether the status belongs to the retryable class. After
// Execute returns it is always false in practice (a retryable status only
// escapes once attempts are exhausted), but callers inspecting wrapped errors
// can still use it to tell 5xx exhaustion apart from a 4xx rejection.
func (e *StatusError) Temporary() bool {
	return e.Code/100 == 5
}
