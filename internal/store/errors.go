package store

import (
	"errors"
	"fmt"
)

// ErrorKind classifies store failures.
type ErrorKind int

const (
	KindInvalidValue ErrorKind = iota + 1
	KindAddFailed
	KindUpdateFailed
	KindDeleteFailed
	KindFetchFailed
	KindTimedOut
	KindRemoteSyncFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidValue:
		return "invalid value"
	case KindAddFailed:
		return "add failed"
	case KindUpdateFailed:
		return "update failed"
	case KindDeleteFailed:
		return "delete failed"
	case KindFetchFailed:
		return "fetch failed"
	case KindTimedOut:
		return "timed out"
	case KindRemoteSyncFailed:
		return "remote sync failed"
	default:
		return "unknown error"
	}
}

// Error is returned by every store operation. Use errors.Is with the
// sentinels below to test the kind.
type Error struct {
	Err    error
	Reason string
	Kind   ErrorKind
}

var (
	ErrInvalidValue     = &Error{Kind: KindInvalidValue}
	ErrAddFailed        = &Error{Kind: KindAddFailed}
	ErrUpdateFailed     = &Error{Kind: KindUpdateFailed}
	ErrDeleteFailed     = &Error{Kind: KindDeleteFailed}
	ErrFetchFailed      = &Error{Kind: KindFetchFailed}
	ErrTimedOut         = &Error{Kind: KindTimedOut}
	ErrRemoteSyncFailed = &Error{Kind: KindRemoteSyncFailed}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == "" && t.Err == nil && t.Kind == e.Kind
}

// NewError builds an error of the given kind with a formatted reason.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and reason to err. An err that already is a
// store error is returned unchanged.
func WrapError(kind ErrorKind, reason string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the kind of a store error, 0 for other errors.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
