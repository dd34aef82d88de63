// Package generation defines the error taxonomy shared by the whole
// pipeline. Every message that can reach a caller is sanitized so that
// binary leakage from provider responses never corrupts output.
package generation

import (
	"fmt"
	"strings"
	"time"
)

// Sanitize strips control characters from a message. Provider error details
// are echoed verbatim otherwise.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// ValidationError reports a bad or missing input field. Fatal, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return Sanitize(fmt.Sprintf("validation: field %q %s", e.Field, e.Reason))
}

// NewValidationError builds a ValidationError naming the offending field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ProviderError is an explicit terminal error from the provider, or a
// terminal response that carries no usable output. Fatal.
type ProviderError struct {
	Detail string
}

func (e *ProviderError) Error() string {
	return Sanitize("provider: " + e.Detail)
}

// SafetyFilterError signals a provider-side content-policy rejection. The
// reasons are surfaced verbatim (sanitized only for control characters).
type SafetyFilterError struct {
	Reasons []string
}

func (e *SafetyFilterError) Error() string {
	msg := "content safety rejection"
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return Sanitize(msg)
}

// TimeoutError is raised when the polling deadline is exceeded. Fatal and
// never silently retried.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s", e.Elapsed.Round(time.Second))
}

// UploadError wraps the last underlying failure after upload retries are
// exhausted, or a non-transient failure that aborted immediately.
type UploadError struct {
	Attempts int
	Last     error
}

func (e *UploadError) Error() string {
	return Sanitize(fmt.Sprintf("upload failed after %d attempt(s): %v", e.Attempts, e.Last))
}

func (e *UploadError) Unwrap() error { return e.Last }

// ToolUnavailableError means the external transcoding tool is missing. It is
// raised before any network work begins for modes that require the tool.
type ToolUnavailableError struct {
	Tool string
	Err  error
}

func (e *ToolUnavailableError) Error() string {
	return Sanitize(fmt.Sprintf("%s is not available: %v; install it and make sure it is on PATH", e.Tool, e.Err))
}

func (e *ToolUnavailableError) Unwrap() error { return e.Err }
