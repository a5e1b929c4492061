package apierror

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failures surfaced to pages and forms.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not-found"
	KindPayloadTooLarge  Kind = "payload-too-large"
	KindUnsupportedMedia Kind = "unsupported-media"
	KindRateLimited      Kind = "rate-limited"
	KindServer           Kind = "server"
	KindTimeout          Kind = "timeout"
	KindNetwork          Kind = "network"
	KindUnknown          Kind = "unknown"
)

// DefaultRetryAfterMinutes applies when a 429 carries no usable retryAfter.
const DefaultRetryAfterMinutes = 15

// MaxRetryAfterMinutes caps a server-supplied cooldown at one day.
const MaxRetryAfterMinutes = 24 * 60

func clampRetryAfter(minutes int) int {
	switch {
	case minutes <= 0:
		return DefaultRetryAfterMinutes
	case minutes > MaxRetryAfterMinutes:
		return MaxRetryAfterMinutes
	}
	return minutes
}

var cannedMessages = map[Kind]string{
	KindValidation:       "Invalid form data. Please check your inputs.",
	KindNotFound:         "The requested resource was not found.",
	KindPayloadTooLarge:  "File is too large. Maximum size is 3MB.",
	KindUnsupportedMedia: "Invalid file type. Please upload a PDF file.",
	KindRateLimited:      "Too many requests. Please try again later.",
	KindServer:           "An unexpected error occurred. Please try again.",
	KindTimeout:          "Request timeout. Please try again.",
	KindNetwork:          "Network error. Please check your connection.",
	KindUnknown:          "An unexpected error occurred. Please try again.",
}

// DefaultMessage is the canned text for a kind.
func DefaultMessage(k Kind) string {
	if msg, ok := cannedMessages[k]; ok {
		return msg
	}
	return cannedMessages[KindUnknown]
}

type Error struct {
	Kind     Kind
	Message  string
	Status   int
	Method   string
	Endpoint string
	// RouteMissing marks a 404 whose body is not an API envelope, i.e. the
	// route itself does not exist on the backend.
	RouteMissing bool
	Err          error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %s", e.Method, e.Endpoint, e.Kind, e.Status, e.Message)
	}
	if e.Endpoint != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Endpoint, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// RateLimitError is the only error that carries a retry hint.
type RateLimitError struct {
	Cause Error
	// RetryAfter is in minutes.
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry after %d minutes)", e.Cause.Error(), e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return &e.Cause }

func New(kind Kind, message string) *Error {
	if message == "" {
		message = DefaultMessage(kind)
	}
	return &Error{Kind: kind, Message: message}
}

func NewRateLimited(message string, retryAfter int) *RateLimitError {
	if message == "" {
		message = DefaultMessage(KindRateLimited)
	}
	return &RateLimitError{
		Cause:      Error{Kind: KindRateLimited, Message: message},
		RetryAfter: clampRetryAfter(retryAfter),
	}
}

// KindOf returns the kind of a classified error, or KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultMessage(KindUnknown)
}

// RetryAfter reports the cooldown in minutes for rate-limited errors, kept
// within 1..MaxRetryAfterMinutes.
func RetryAfter(err error) (int, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return clampRetryAfter(rl.RetryAfter), true
	}
	return 0, false
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsRecoverable reports whether pages should offer a retry for the kind.
func IsRecoverable(k Kind) bool {
	switch k {
	case KindTimeout, KindNetwork, KindServer:
		return true
	default:
		return false
	}
}
