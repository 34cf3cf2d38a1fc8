package domain

import (
	"errors"
	"testing"
)

func TestErrorConstants(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrInvalidArgument", ErrInvalidArgument, "invalid argument"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
		{"ErrCircuitOpen", ErrCircuitOpen, "circuit open"},
		{"ErrUpstreamTimeout", ErrUpstreamTimeout, "upstream timeout"},
		{"ErrUpstreamRateLimit", ErrUpstreamRateLimit, "upstream rate limit"},
		{"ErrUpstreamUnavailable", ErrUpstreamUnavailable, "upstream unavailable"},
		{"ErrSchemaInvalid", ErrSchemaInvalid, "schema invalid"},
		{"ErrInternal", ErrInternal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected %s to be %q, got %q", tt.name, tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		expected bool
	}{
		{"ErrRateLimited is ErrRateLimited", ErrRateLimited, ErrRateLimited, true},
		{"ErrCircuitOpen is ErrCircuitOpen", ErrCircuitOpen, ErrCircuitOpen, true},
		{"ErrUpstreamTimeout is ErrUpstreamTimeout", ErrUpstreamTimeout, ErrUpstreamTimeout, true},
		{"ErrSchemaInvalid is ErrSchemaInvalid", ErrSchemaInvalid, ErrSchemaInvalid, true},
		{"ErrRateLimited is not ErrCircuitOpen", ErrRateLimited, ErrCircuitOpen, false},
		{"ErrUpstreamTimeout is not ErrUpstreamUnavailable", ErrUpstreamTimeout, ErrUpstreamUnavailable, false},
		{"ErrSchemaInvalid is not ErrInternal", ErrSchemaInvalid, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errors.Is(tt.err, tt.target) != tt.expected {
				t.Errorf("Expected errors.Is(%v, %v) to be %v, got %v", tt.err, tt.target, tt.expected, !tt.expected)
			}
		})
	}
}

func TestWrappedSentinelsSurviveErrorsIs(t *testing.T) {
	wrapped := errors.Join(ErrUpstreamTimeout, errors.New("op=ai.ChatJSON: deadline exceeded"))
	if !errors.Is(wrapped, ErrUpstreamTimeout) {
		t.Errorf("Expected wrapped error to match ErrUpstreamTimeout")
	}
	if errors.Is(wrapped, ErrSchemaInvalid) {
		t.Errorf("Expected wrapped error not to match ErrSchemaInvalid")
	}
}
