// Package hosterr defines the error types shared between the host API
// client, the git client and the automerge logic.
package hosterr

import (
	"errors"
	"fmt"
	"time"
)

// ErrHostUnavailable is returned when the repository host can not be
// reached at all, e.g. because of a transport or authentication failure.
var ErrHostUnavailable = errors.New("repository host unavailable")

// ErrNotFound is returned when a pull request does not exist anymore on the
// host.
var ErrNotFound = errors.New("not found")

// RetryableError wraps an error of an operation that can be retried.
type RetryableError struct {
	// Err is the wrapped original error
	Err error
	// After is the earliest point in time that the operation can be retried
	After time.Time
}

func NewRetryableError(originalErr error, retryAfter time.Time) *RetryableError {
	return &RetryableError{
		Err:   originalErr,
		After: retryAfter,
	}
}

func NewRetryableAnytimeError(originalErr error) *RetryableError {
	return &RetryableError{
		Err: originalErr,
	}
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func (e *RetryableError) Error() string {
	if e.After.IsZero() {
		return fmt.Sprintf("retryable error: %s", e.Err)
	}

	return fmt.Sprintf("retryable error (after %s): %s", e.After, e.Err)
}

// MergeRejectedError is returned when the host refused to merge a pull
// request with a specific strategy, e.g. because branch protection rules
// forbid the merge method.
// The refusal only applies to the attempted strategy, another strategy might
// still succeed.
type MergeRejectedError struct {
	Strategy string
	Reason   error
}

func NewMergeRejectedError(strategy string, reason error) *MergeRejectedError {
	return &MergeRejectedError{Strategy: strategy, Reason: reason}
}

func (e *MergeRejectedError) Unwrap() error {
	return e.Reason
}

func (e *MergeRejectedError) Error() string {
	return fmt.Sprintf("host rejected merging via %s: %s", e.Strategy, e.Reason)
}
