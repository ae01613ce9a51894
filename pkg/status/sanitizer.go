// Package status turns upstream failures into caller-facing messages.
// It classifies errors from the Claude API and Azure Functions into
// failure types with a user message and suggestion, and redacts
// credentials and internal addresses from raw error text before it is
// returned to clients or persisted.
package status

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"hybridmcp/pkg/breaker"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/functions"
)

// FailureType class of an upstream failure
type FailureType string

const (
	FailureTypeTimeout           FailureType = "TIMEOUT"
	FailureTypeCanceled          FailureType = "CANCELED"
	FailureTypeAuth              FailureType = "AUTH_FAILED"
	FailureTypeRateLimited       FailureType = "RATE_LIMITED"
	FailureTypeOverloaded        FailureType = "OVERLOADED"
	FailureTypeUpstream          FailureType = "UPSTREAM_ERROR"
	FailureTypeUnavailable       FailureType = "UPSTREAM_UNAVAILABLE"
	FailureTypeRemoteFailed      FailureType = "REMOTE_FAILED"
	FailureTypeRemoteUnavailable FailureType = "REMOTE_UNAVAILABLE"
	FailureTypeUnknown           FailureType = "UNKNOWN"
)

// overloadedStatus is the Messages API status for a temporarily overloaded service
const overloadedStatus = 529

// SanitizedError user-facing description of a failure
type SanitizedError struct {
	UserMessage string `json:"userMessage"`
	Suggestion  string `json:"suggestion"`
	ErrorCode   string `json:"errorCode"`
}

// DefaultMappings failure type to user-facing description
var DefaultMappings = map[FailureType]SanitizedError{
	FailureTypeTimeout: {
		UserMessage: "The operation timed out",
		Suggestion:  "Retry with a smaller request or submit it as an async task",
		ErrorCode:   "TIMEOUT",
	},
	FailureTypeCanceled: {
		UserMessage: "The operation was canceled",
		Suggestion:  "Retry the request",
		ErrorCode:   "CANCELED",
	},
	FailureTypeAuth: {
		UserMessage: "The model API rejected the configured credentials",
		Suggestion:  "Check claude.api_key or ANTHROPIC_API_KEY",
		ErrorCode:   "UPSTREAM_AUTH",
	},
	FailureTypeRateLimited: {
		UserMessage: "The model API rate limit was reached",
		Suggestion:  "Wait a moment before retrying",
		ErrorCode:   "UPSTREAM_RATE_LIMITED",
	},
	FailureTypeOverloaded: {
		UserMessage: "The model API is temporarily overloaded",
		Suggestion:  "Retry shortly",
		ErrorCode:   "UPSTREAM_OVERLOADED",
	},
	FailureTypeUpstream: {
		UserMessage: "The model API returned an error",
		Suggestion:  "Retry shortly; if it persists check the model API status",
		ErrorCode:   "UPSTREAM_ERROR",
	},
	FailureTypeUnavailable: {
		UserMessage: "An upstream service is failing and calls are paused",
		Suggestion:  "Retry after the circuit breaker timeout",
		ErrorCode:   "UPSTREAM_UNAVAILABLE",
	},
	FailureTypeRemoteFailed: {
		UserMessage: "The remote function failed",
		Suggestion:  "Check the function app logs; the task may be retried locally",
		ErrorCode:   "REMOTE_FAILED",
	},
	FailureTypeRemoteUnavailable: {
		UserMessage: "Remote execution is not available",
		Suggestion:  "Enable functions and map the task category to a function app",
		ErrorCode:   "REMOTE_UNAVAILABLE",
	},
	FailureTypeUnknown: {
		UserMessage: "An unexpected error occurred",
		Suggestion:  "Check the server logs for the request id",
		ErrorCode:   "INTERNAL_ERROR",
	},
}

type sensitivePattern struct {
	pattern     *regexp.Regexp
	replacement string
	description string
}

// Sanitizer classifies and redacts failures
type Sanitizer struct {
	mappings          map[FailureType]SanitizedError
	sensitivePatterns []*sensitivePattern
}

// NewSanitizer creates a sanitizer with the default mappings and patterns
func NewSanitizer() *Sanitizer {
	mappings := make(map[FailureType]SanitizedError, len(DefaultMappings))
	for k, v := range DefaultMappings {
		mappings[k] = v
	}
	return &Sanitizer{
		mappings:          mappings,
		sensitivePatterns: buildDefaultSensitivePatterns(),
	}
}

// buildDefaultSensitivePatterns returns the redaction patterns, most specific first.
func buildDefaultSensitivePatterns() []*sensitivePattern {
	return []*sensitivePattern{
		{
			pattern:     regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]+`),
			replacement: "[api-key]",
			description: "Anthropic API key",
		},
		{
			pattern:     regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}`),
			replacement: "[api-key]",
			description: "secret key",
		},
		{
			pattern:     regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`),
			replacement: "Bearer [redacted]",
			description: "bearer token",
		},
		{
			pattern:     regexp.MustCompile(`(?i)\b(x-api-key|x-functions-key)(\s*[:=]\s*)[^\s,;"]+`),
			replacement: "${1}${2}[redacted]",
			description: "key header",
		},
		{
			pattern:     regexp.MustCompile(`(?i)([?&]code=)[^&\s"]+`),
			replacement: "${1}[redacted]",
			description: "function key query parameter",
		},
		{
			pattern:     regexp.MustCompile(`https?://[^:/\s]+:[^@\s]+@[a-zA-Z0-9][-a-zA-Z0-9_.]*`),
			replacement: "[credential-url]",
			description: "URL with credentials",
		},
		{
			pattern:     regexp.MustCompile(`[^\s:/@(]+:[^\s@]+@tcp\(`),
			replacement: "[credentials]@tcp(",
			description: "MySQL DSN credentials",
		},
		{
			pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd)=[^\s&;]+`),
			replacement: "${1}=[redacted]",
			description: "DSN password",
		},
		{
			pattern:     regexp.MustCompile(`\b10\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[internal-ip]",
			description: "10.x.x.x private IP",
		},
		{
			pattern:     regexp.MustCompile(`\b172\.(1[6-9]|2[0-9]|3[0-1])\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[internal-ip]",
			description: "172.16-31.x.x private IP",
		},
		{
			pattern:     regexp.MustCompile(`\b192\.168\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[internal-ip]",
			description: "192.168.x.x private IP",
		},
	}
}

// Classify maps err onto a failure type
func (s *Sanitizer) Classify(err error) FailureType {
	var apiErr *claude.APIError
	var invErr *functions.InvocationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTypeTimeout
	case errors.Is(err, context.Canceled):
		return FailureTypeCanceled
	case errors.Is(err, claude.ErrCircuitOpen),
		errors.Is(err, functions.ErrCircuitOpen),
		errors.Is(err, breaker.ErrCircuitOpen):
		return FailureTypeUnavailable
	case errors.Is(err, functions.ErrDisabled),
		errors.Is(err, functions.ErrUnknownApp):
		return FailureTypeRemoteUnavailable
	case errors.As(err, &apiErr):
		return classifyAPIError(apiErr)
	case errors.As(err, &invErr):
		return FailureTypeRemoteFailed
	default:
		return FailureTypeUnknown
	}
}

func classifyAPIError(e *claude.APIError) FailureType {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return FailureTypeAuth
	case e.StatusCode == http.StatusTooManyRequests:
		return FailureTypeRateLimited
	case e.StatusCode == overloadedStatus, e.Type == "overloaded_error":
		return FailureTypeOverloaded
	default:
		return FailureTypeUpstream
	}
}

// Sanitize describes err for callers. It returns nil for a nil error.
func (s *Sanitizer) Sanitize(err error) *SanitizedError {
	if err == nil {
		return nil
	}
	if mapped, ok := s.mappings[s.Classify(err)]; ok {
		return &mapped
	}
	fallback := s.mappings[FailureTypeUnknown]
	return &fallback
}

// Redact removes credentials and internal addresses from message
func (s *Sanitizer) Redact(message string) string {
	if message == "" {
		return message
	}

	result := message
	for _, sp := range s.sensitivePatterns {
		result = sp.pattern.ReplaceAllString(result, sp.replacement)
	}
	return result
}

// AddMapping overrides the description of a failure type
func (s *Sanitizer) AddMapping(failureType FailureType, sanitized SanitizedError) {
	s.mappings[failureType] = sanitized
}

// AddSensitivePattern adds a custom redaction pattern
func (s *Sanitizer) AddSensitivePattern(pattern *regexp.Regexp, replacement, description string) {
	s.sensitivePatterns = append(s.sensitivePatterns, &sensitivePattern{
		pattern:     pattern,
		replacement: replacement,
		description: description,
	})
}

var defaultSanitizer = NewSanitizer()

// Redact removes sensitive text using the default sanitizer
func Redact(message string) string {
	return defaultSanitizer.Redact(message)
}

// Sanitize describes err using the default sanitizer
func Sanitize(err error) *SanitizedError {
	return defaultSanitizer.Sanitize(err)
}

// RedactError returns the redacted text of err, or "" for nil
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return defaultSanitizer.Redact(err.Error())
}
