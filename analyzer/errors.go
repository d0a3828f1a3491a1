package analyzer

import (
	"errors"
	"fmt"
)

// Kind classifies why an analysis failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidScheme
	KindBlockedHost
	KindTimeout
	KindPayloadTooLarge
	KindFetchFailed
	KindUnsupportedContentType
	KindUnreachable
)

var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindInvalidScheme:          "invalid_scheme",
	KindBlockedHost:            "blocked_host",
	KindTimeout:                "timeout",
	KindPayloadTooLarge:        "payload_too_large",
	KindFetchFailed:            "fetch_failed",
	KindUnsupportedContentType: "unsupported_content_type",
	KindUnreachable:            "unreachable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// User-facing messages for each failure.
const (
	msgInvalidScheme      = "Only HTTP and HTTPS URLs are supported"
	msgBlockedHostname    = "Private and local addresses are not allowed"
	msgBlockedAddress     = "Private and local IP addresses are not allowed"
	msgTimeout            = "Request timeout: URL took too long to respond"
	msgPayloadTooLarge    = "Response size exceeds 5MB limit"
	msgUnsupportedContent = "URL does not return HTML content"
	msgUnreachable        = "Unable to reach URL: Please check the URL and try again"
	msgUnknown            = "Unknown error occurred while analyzing URL"
)

// Error is returned by every stage of the pipeline.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is set for KindFetchFailed.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: KindTimeout}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf reports the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
