package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Kind classifies what went wrong during an adapter call.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNetworkUnreachable covers transport failures: refused connections,
	// DNS errors, timeouts, cancelled contexts.
	KindNetworkUnreachable
	// KindAuthRejected means the daemon refused the supplied credentials.
	KindAuthRejected
	// KindMalformedResponse means the daemon answered, but not in the shape
	// its protocol promises.
	KindMalformedResponse
	// KindServerError is an HTTP or application-level failure reported by the
	// daemon after (or independent of) a successful handshake.
	KindServerError
	// KindUnsupportedConfig means the configuration can never work with this
	// client type, e.g. plain HTTP for Synology.
	KindUnsupportedConfig
	// KindInvalidInput covers empty magnet URIs and empty server URLs,
	// detected before any network attempt.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNetworkUnreachable:
		return "network unreachable"
	case KindAuthRejected:
		return "authentication rejected"
	case KindMalformedResponse:
		return "malformed response"
	case KindServerError:
		return "server error"
	case KindUnsupportedConfig:
		return "unsupported configuration"
	case KindInvalidInput:
		return "invalid input"
	}
	return "unknown error"
}

// Error is the normalized failure every adapter surfaces.
type Error struct {
	Kind       Kind
	Op         string // e.g. "deluge: login"
	StatusCode int    // HTTP status or protocol error code, when known
	Message    string // daemon-supplied or adapter-supplied detail
	Err        error  // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (code %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage renders the error as a short sentence fit for end-user
// display. Internal detail (URLs, wrapped causes, status bodies) stays out.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindNetworkUnreachable:
		return "could not reach the server"
	case KindAuthRejected:
		return "the server rejected the username or password"
	case KindMalformedResponse:
		return "the server sent an unexpected response"
	case KindServerError:
		if e.Message != "" {
			return "the server reported an error: " + e.Message
		}
		if e.StatusCode != 0 {
			return fmt.Sprintf("the server reported an error (code %d)", e.StatusCode)
		}
		return "the server reported an error"
	case KindUnsupportedConfig, KindInvalidInput:
		if e.Message != "" {
			return e.Message
		}
		return "the current configuration is not usable"
	}
	return "the operation failed"
}

// KindOf extracts the classification from any error an adapter returned.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// wrapTransport classifies a failure from the HTTP client itself. Anything
// that never produced a response is network-unreachable, including timeouts
// and cancellation.
func wrapTransport(op string, err error) *Error {
	return &Error{Kind: KindNetworkUnreachable, Op: op, Err: err}
}

// errFromStatus maps a non-2xx HTTP status. 401/403 always win as an auth
// rejection, so an HTTP-level failure on the handshake is never misreported
// as a protocol problem.
func errFromStatus(op string, code int) *Error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return &Error{Kind: KindAuthRejected, Op: op, StatusCode: code}
	}
	return &Error{Kind: KindServerError, Op: op, StatusCode: code}
}

// isTransportErr reports whether err originated below HTTP semantics.
func isTransportErr(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// classify normalizes an error from a wrapped client library: already-typed
// errors pass through, transport failures become network-unreachable, the
// rest is attributed to the server.
func classify(op string, err error) error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	if isTransportErr(err) {
		return wrapTransport(op, err)
	}
	return &Error{Kind: KindServerError, Op: op, Err: err}
}
