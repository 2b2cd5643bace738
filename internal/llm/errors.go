package llm

import (
	"errors"
	"strings"
)

// ErrNotConfigured is returned before any provider call when no API key is set.
var ErrNotConfigured = errors.New("Gemini API key is not configured. Set GEMINI_API_KEY or GOOGLE_API_KEY")

type Kind int

const (
	KindGeneration Kind = iota
	KindAuth
	KindQuota
	KindRateLimit
)

// ProviderError wraps a failed provider call with a user-facing message.
type ProviderError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error { return e.Err }

// classify buckets a provider failure by its error text. Quota is checked
// before rate limiting because quota errors often arrive as 429s too.
func classify(err error) *ProviderError {
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "api key") ||
		strings.Contains(text, "unauthorized") ||
		strings.Contains(text, "permission denied") ||
		strings.Contains(text, "401"):
		return &ProviderError{
			Kind:    KindAuth,
			Message: "Invalid or unauthorized API key. Check your Gemini credentials.",
			Err:     err,
		}
	case strings.Contains(text, "quota") || strings.Contains(text, "billing"):
		return &ProviderError{
			Kind:    KindQuota,
			Message: "API quota exceeded. Check your plan and billing details.",
			Err:     err,
		}
	case strings.Contains(text, "rate limit") ||
		strings.Contains(text, "too many requests") ||
		strings.Contains(text, "resource exhausted") ||
		strings.Contains(text, "429"):
		return &ProviderError{
			Kind:    KindRateLimit,
			Message: "Too many requests right now. Please wait a moment and try again.",
			Err:     err,
		}
	default:
		return &ProviderError{
			Kind:    KindGeneration,
			Message: "Failed to generate a response. Please try again.",
			Err:     err,
		}
	}
}
