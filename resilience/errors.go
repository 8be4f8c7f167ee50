// Package resilience generalizes the retry/backoff idiom the teacher
// inlines once in llm/openai_compat.go's doPost into a reusable layer:
// retry, circuit breaker, rate limiter, and bulkhead (spec.md §4.10).
package resilience

import "errors"

// ErrNonRetryable wraps an error to signal that no further retry attempts
// should be made (spec.md §4.4's "content-policy refusal (non-retryable)").
var ErrNonRetryable = errors.New("resilience: non-retryable error")

// NonRetryable marks err so Retry stops immediately instead of spending its
// remaining attempts on a failure mode that cannot succeed on retry.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

type nonRetryableError struct{ err error }

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }
func (e *nonRetryableError) Is(target error) bool {
	return target == ErrNonRetryable
}

// IsRetryable reports whether err should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNonRetryable)
}
