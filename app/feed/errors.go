package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindInvalidURL    ErrorKind = "invalidUrl"
	ErrorKindDuplicateFeed ErrorKind = "duplicate"
	ErrorKindRequiredField ErrorKind = "required"
	ErrorKindNotFeed       ErrorKind = "notRss"
	ErrorKindNetwork       ErrorKind = "network"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindUnknown       ErrorKind = "unknown"
)

// Error carries the classification surfaced to the page next to the
// underlying cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}

	var feedErr *Error
	if errors.As(err, &feedErr) {
		return feedErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrorKindNetwork
	}

	return ErrorKindUnknown
}
