package webtoolkit

import (
	"errors"
	"strings"
	"testing"
)

func TestToolkitErrorMessage(t *testing.T) {
	err := &ToolkitError{
		Type:    ErrorTypeNetwork,
		Message: "request failed",
		Cause:   errors.New("connection refused"),
	}

	msg := err.Error()
	if !strings.Contains(msg, "Network") {
		t.Errorf("Expected type in message, got %q", msg)
	}
	if !strings.Contains(msg, "request failed") {
		t.Errorf("Expected message text, got %q", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("Expected cause in message, got %q", msg)
	}
}

func TestToolkitErrorIncludesRequestContext(t *testing.T) {
	err := &ToolkitError{
		Type:       ErrorTypeServer,
		Message:    "server returned 502 Bad Gateway",
		RequestID:  "req-123",
		Attempt:    2,
		MaxRetries: 3,
	}

	msg := err.Error()
	if !strings.Contains(msg, "req-123") {
		t.Errorf("Expected request id in message, got %q", msg)
	}
	if !strings.Contains(msg, "attempt 2/3") {
		t.Errorf("Expected attempt counter in message, got %q", msg)
	}
}

func TestToolkitErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &ToolkitError{Type: ErrorTypeNetwork, Message: "wrapped", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
}

func TestToolkitErrorIsSentinels(t *testing.T) {
	open := &ToolkitError{Type: ErrorTypeCircuitOpen, Message: "circuit breaker is open"}
	if !errors.Is(open, ErrCircuitOpen) {
		t.Error("Expected circuit-open error to match ErrCircuitOpen")
	}
	if errors.Is(open, ErrRateLimited) {
		t.Error("Expected circuit-open error not to match ErrRateLimited")
	}

	limited := &ToolkitError{Type: ErrorTypeRateLimit, Message: "rate limited"}
	if !errors.Is(limited, ErrRateLimited) {
		t.Error("Expected rate-limit error to match ErrRateLimited")
	}
}

func TestToolkitErrorIsMatchesType(t *testing.T) {
	a := &ToolkitError{Type: ErrorTypeServer, Message: "a"}
	b := &ToolkitError{Type: ErrorTypeServer, Message: "b"}
	c := &ToolkitError{Type: ErrorTypeNetwork, Message: "c"}

	if !errors.Is(a, b) {
		t.Error("Expected same-type errors to match")
	}
	if errors.Is(a, c) {
		t.Error("Expected different-type errors not to match")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", &ToolkitError{Type: ErrorTypeNetwork}, true},
		{"timeout", &ToolkitError{Type: ErrorTypeTimeout}, true},
		{"server", &ToolkitError{Type: ErrorTypeServer}, true},
		{"rate limit", &ToolkitError{Type: ErrorTypeRateLimit}, true},
		{"circuit open", &ToolkitError{Type: ErrorTypeCircuitOpen}, true},
		{"validation", &ToolkitError{Type: ErrorTypeValidation}, false},
		{"429 validation", &ToolkitError{Type: ErrorTypeValidation, StatusCode: 429}, true},
		{"sentinel circuit open", ErrCircuitOpen, true},
		{"sentinel rate limited", ErrRateLimited, true},
		{"plain error", errors.New("something"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}
