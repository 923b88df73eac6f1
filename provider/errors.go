package provider

import (
	"context"
	"errors"
	"strings"
)

// ErrMissingCredential is returned for every call when no API key was configured.
var ErrMissingCredential = errors.New("provider: missing API key")

// ErrNoChoices is returned when the provider responds without any completion.
var ErrNoChoices = errors.New("provider: response contained no choices")

// Kind is a category of provider failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindQuota
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

// The OpenAI client surfaces API errors as text, e.g.
// "API returned unexpected status code: 429: You exceeded your current quota, ...".
var (
	quotaMarkers = []string{"insufficient_quota", "exceeded your current quota"}
	authMarkers  = []string{"invalid_api_key", "incorrect api key", "status code: 401"}
)

// Classify maps a provider error to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrMissingCredential) {
		return KindAuth
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	msg := strings.ToLower(err.Error())
	if containsAny(msg, quotaMarkers) {
		return KindQuota
	}
	if containsAny(msg, authMarkers) {
		return KindAuth
	}
	if strings.Contains(msg, context.DeadlineExceeded.Error()) {
		return KindTimeout
	}
	return KindUnknown
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
