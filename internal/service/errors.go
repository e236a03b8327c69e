package service

import (
	"errors"
	"fmt"

	"github.com/capitalize-ai/chat-assistant/internal/llm"
)

// Kind classifies a failure for the transport layer.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTooLarge   Kind = "too_large"
	KindUpstream   Kind = "upstream"
	KindStorage    Kind = "storage"
)

// Error is the error type returned by every service operation.
type Error struct {
	Kind      Kind
	Op        string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError wraps err as a validation failure.
func ValidationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// TooLargeError reports an upload over the configured limit.
func TooLargeError(op string, limit int64) *Error {
	return &Error{Kind: KindTooLarge, Op: op, Err: fmt.Errorf("upload exceeds %d bytes", limit)}
}

// UpstreamError wraps a chat capability failure.
func UpstreamError(op string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Err: err, Retryable: llm.IsRetryable(err)}
}

// StorageError wraps a filesystem failure.
func StorageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// KindOf returns the kind of err, treating unknown errors as upstream.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUpstream
}
