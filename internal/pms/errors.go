package pms

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies failures at the upstream and render boundaries.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuth means InitSession was rejected or its response was unreadable.
	KindAuth
	// KindFetch means GetDevices was rejected, the session was out, or the
	// payload was malformed.
	KindFetch
	// KindRender means the renderer failed to produce an image.
	KindRender
	// KindTransport means the network call itself failed or timed out.
	KindTransport
	// KindCanceled means the caller's context ended before a result arrived.
	KindCanceled
	// KindInvalid means the caller passed an unusable argument.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindFetch:
		return "fetch"
	case KindRender:
		return "render"
	case KindTransport:
		return "transport"
	case KindCanceled:
		return "canceled"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is returned by every boundary call in this module.
type Error struct {
	Kind Kind
	Op   string
	// Status is the upstream HTTP status code, zero when none was received.
	Status int
	// Msg is the literal upstream diagnostic, if any.
	Msg string
	Err error
}

func (e *Error) Error() string {
	s := e.Op + ": " + e.Kind.String() + " error"
	if e.Status != 0 {
		s += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// transportError classifies a failed http round trip. Context expiry wins
// over the generic transport kind so callers can tell the two apart.
func transportError(op string, ctxErr, err error) *Error {
	if ctxErr != nil {
		return &Error{Kind: KindCanceled, Op: op, Err: ctxErr}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
