package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind is the stable, provider-agnostic classification of an adapter
// failure. Callers branch on kinds, never on provider-specific text.
type ErrorKind string

const (
	KindUnsupportedProvider ErrorKind = "unsupported_provider"
	KindMissingCredential   ErrorKind = "missing_credential"
	KindInvalidCredential   ErrorKind = "invalid_credential"
	KindRateLimited         ErrorKind = "rate_limited"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindEmptyResponse       ErrorKind = "empty_response"
	KindMalformedResponse   ErrorKind = "malformed_response"
	KindProviderError       ErrorKind = "provider_error"
)

// Error is a classified provider failure. The original provider message is
// preserved in Message for diagnostics.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is match two *Errors of the same kind, so packages can
// export sentinel values like ErrRateLimited.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrUnsupportedProvider = &Error{Kind: KindUnsupportedProvider}
	ErrMissingCredential   = &Error{Kind: KindMissingCredential}
	ErrInvalidCredential   = &Error{Kind: KindInvalidCredential}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
	ErrProviderUnavailable = &Error{Kind: KindProviderUnavailable}
	ErrEmptyResponse       = &Error{Kind: KindEmptyResponse}
	ErrMalformedResponse   = &Error{Kind: KindMalformedResponse}
)

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// classifyStatus maps an HTTP status code to an error kind. Structured codes
// are authoritative; message inspection is a fallback only (classifyMessage).
func classifyStatus(code int) (ErrorKind, bool) {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindInvalidCredential, true
	case code == http.StatusTooManyRequests:
		return KindRateLimited, true
	case code >= 500:
		return KindProviderUnavailable, true
	}
	return KindProviderError, false
}

// messageKinds is the centralized substring fallback table, consulted only
// when the transport did not expose a usable status code.
var messageKinds = []struct {
	substr string
	kind   ErrorKind
}{
	{"api key not valid", KindInvalidCredential},
	{"invalid api key", KindInvalidCredential},
	{"incorrect api key", KindInvalidCredential},
	{"unauthenticated", KindInvalidCredential},
	{"permission denied", KindInvalidCredential},
	{"rate limit", KindRateLimited},
	{"quota", KindRateLimited},
	{"resource exhausted", KindRateLimited},
	{"overloaded", KindProviderUnavailable},
	{"service unavailable", KindProviderUnavailable},
	{"internal error", KindProviderUnavailable},
}

func classifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	for _, m := range messageKinds {
		if strings.Contains(lower, m.substr) {
			return m.kind
		}
	}
	return KindProviderError
}

// classify combines both strategies: status code first, message second.
func classify(code int, msg string) ErrorKind {
	if kind, ok := classifyStatus(code); ok {
		return kind
	}
	return classifyMessage(msg)
}
