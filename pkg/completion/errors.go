package completion

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a completion failure.
type Kind int

const (
	// KindTransport covers network failures and cancellation: no usable
	// response arrived.
	KindTransport Kind = iota + 1
	// KindService means the service answered with an error status, such as
	// an authentication rejection.
	KindService
	// KindMalformed means a response arrived but carried no reply.
	KindMalformed
	// KindInvalidRequest means the history could not be turned into a
	// request, so nothing was sent.
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindService:
		return "service"
	case KindMalformed:
		return "malformed response"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the failure type returned by every Completer in this package.
type Error struct {
	Provider string
	Kind     Kind
	// StatusCode is the HTTP status for KindService, zero otherwise.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return 0
}

var (
	errNoChoices = errors.New("response contained no choices")
	errNoText    = errors.New("response contained no text content")
)

func malformed(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindMalformed, Err: err}
}

func invalidRequest(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindInvalidRequest, Err: err}
}

// classify wraps an SDK error. statusOf reports the HTTP status when err is
// the provider's API error type.
func classify(provider string, err error, statusOf func(error) (int, bool)) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Provider: provider, Kind: KindTransport, Err: err}
	}
	if status, ok := statusOf(err); ok {
		return &Error{Provider: provider, Kind: KindService, StatusCode: status, Err: err}
	}
	return &Error{Provider: provider, Kind: KindTransport, Err: err}
}
