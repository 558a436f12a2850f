package guestbook

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxUserLength    = 50
	MaxMessageLength = 500
)

// ValidationCode identifies which check rejected a submission.
type ValidationCode string

const (
	CodeInvalidType ValidationCode = "INVALID_TYPE"
	CodeRequired    ValidationCode = "REQUIRED"
	CodeTooLong     ValidationCode = "TOO_LONG"
)

// ValidationError is returned for user input that fails a constraint.
// Message is safe to show to the client verbatim.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	errInvalidType = &ValidationError{
		Code:    CodeInvalidType,
		Message: `"user" and "message" must be strings.`,
	}
	errRequired = &ValidationError{
		Code:    CodeRequired,
		Message: `Both "user" and "message" are required.`,
	}
	errUserTooLong = &ValidationError{
		Code:    CodeTooLong,
		Message: `"user" must be 50 characters or fewer.`,
	}
	errMessageTooLong = &ValidationError{
		Code:    CodeTooLong,
		Message: `"message" must be 500 characters or fewer.`,
	}
)

// Validate checks a raw user/message pair of unknown type and returns the
// trimmed, HTML-escaped values. A missing field is passed as nil and is
// rejected as a non-string.
func Validate(rawUser, rawMessage any) (user, message string, err error) {
	u, okU := rawUser.(string)
	m, okM := rawMessage.(string)
	if !okU || !okM {
		return "", "", errInvalidType
	}

	u = strings.TrimSpace(u)
	m = strings.TrimSpace(m)
	if u == "" || m == "" {
		return "", "", errRequired
	}

	if utf8.RuneCountInString(u) > MaxUserLength {
		return "", "", errUserTooLong
	}
	if utf8.RuneCountInString(m) > MaxMessageLength {
		return "", "", errMessageTooLong
	}

	return EscapeHTML(u), EscapeHTML(m), nil
}

// NewReplacer substitutes in a single pass, so the '&' of an entity it
// emits is never escaped a second time.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces &, <, >, " and ' with their entity equivalents.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
