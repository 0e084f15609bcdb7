// Package remote defines the contract with the generative inference
// backend and the error taxonomy the rest of the pipeline keys on.
package remote

import (
	"context"
	"errors"
	"fmt"

	"call-qa-go/internal/types"
)

// Inference is the remote model surface used by the item pipeline. Both
// calls are single-attempt; retry is applied by the caller.
type Inference interface {
	// Transcribe returns the verbatim transcript of one recording.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	// Analyze evaluates a transcript against the QA rubric and returns
	// the parsed structured result.
	Analyze(ctx context.Context, transcript string) (types.QAResult, error)
}

// TransientError marks a failure worth retrying: network blips, rate
// limiting, upstream 5xx.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix: rejected
// requests, empty or missing model output.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// ParseError marks a structured response that did not match the expected
// shape. Raw holds a truncated copy of the offending payload for logs.
type ParseError struct {
	Op  string
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// Permanent wraps err as non-retryable.
func Permanent(op string, err error) error {
	return &PermanentError{Op: op, Err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
