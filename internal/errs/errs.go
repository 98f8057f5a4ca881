// Package errs defines the error kinds shared by the server, hub and client.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes an error by where it came from and how it is handled.
type Kind string

const (
	KindConfig        Kind = "CONFIG"        // Invalid startup configuration, fatal.
	KindLock          Kind = "LOCK"          // Subscriber registry unavailable.
	KindSerialization Kind = "SERIALIZATION" // Payload could not be encoded.
	KindTransport     Kind = "TRANSPORT"     // Bind, accept, dial or read failure.
	KindStreamParse   Kind = "STREAM_PARSE"  // Malformed delimited frame on a client stream.
)

var (
	ErrHubClosed         = errors.New("hub is closed")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrNoHosts           = errors.New("no listen hosts")
)

// Error is a categorized error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates an Error around cause.
func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(cause error, kind Kind, format string, args ...any) *Error {
	return Wrap(cause, kind, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err (or anything it wraps) is an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
