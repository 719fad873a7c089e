package types

import (
	"errors"
	"strings"
	"testing"
)

func TestError_ErrorString(t *testing.T) {
	t.Parallel()

	e := NewError(ErrAgentInvocation, "agent failed")
	if got := e.Error(); !strings.Contains(got, "AGENT_INVOCATION") || !strings.Contains(got, "agent failed") {
		t.Fatalf("unexpected error string: %s", got)
	}

	cause := errors.New("connection refused")
	e = e.WithCause(cause)
	if got := e.Error(); !strings.Contains(got, "connection refused") {
		t.Fatalf("expected cause in error string, got: %s", got)
	}
	if !errors.Is(e, cause) {
		t.Fatal("expected errors.Is to match the cause")
	}
}

func TestError_Builders(t *testing.T) {
	t.Parallel()

	e := NewAgentInvocationError("siteA", errors.New("timeout"))
	if e.Code != ErrAgentInvocation {
		t.Fatalf("unexpected code: %s", e.Code)
	}
	if e.Website != "siteA" {
		t.Fatalf("unexpected website: %s", e.Website)
	}
	if !e.Retryable {
		t.Fatal("agent invocation errors should be retryable")
	}

	if !IsErrorCode(e, ErrAgentInvocation) {
		t.Fatal("IsErrorCode should match")
	}
	if IsErrorCode(errors.New("plain"), ErrAgentInvocation) {
		t.Fatal("IsErrorCode should not match plain errors")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Fatal("GetErrorCode should be empty for plain errors")
	}
}

func TestNewInvalidStateError(t *testing.T) {
	t.Parallel()

	e := NewInvalidStateError("record already closed")
	if e.Code != ErrInvalidState {
		t.Fatalf("unexpected code: %s", e.Code)
	}
	if e.Retryable {
		t.Fatal("invalid state errors are programmer errors, never retryable")
	}
}
