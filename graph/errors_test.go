package graph

import (
	"errors"
	"fmt"
	"testing"
)

// TestCompileError verifies every CompileError matches ErrMalformedGraph.
func TestCompileError(t *testing.T) {
	err := &CompileError{Message: "node a has two outgoing edges", Code: CodeBranching}

	if got := err.Error(); got != "BRANCHING: node a has two outgoing edges" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrMalformedGraph) {
		t.Error("expected errors.Is(err, ErrMalformedGraph)")
	}
	if errors.Is(err, ErrInvalidState) {
		t.Error("CompileError must not match ErrInvalidState")
	}

	wrapped := fmt.Errorf("build chat graph: %w", err)
	if !errors.Is(wrapped, ErrMalformedGraph) {
		t.Error("expected wrapped CompileError to match ErrMalformedGraph")
	}

	var ce *CompileError
	if !errors.As(wrapped, &ce) || ce.Code != CodeBranching {
		t.Errorf("errors.As failed or wrong code: %+v", ce)
	}

	if got := (&CompileError{Message: "plain"}).Error(); got != "plain" {
		t.Errorf("Error() without code = %q", got)
	}
}

// TestSentinelErrors verifies the sentinels are distinct.
func TestSentinelErrors(t *testing.T) {
	if errors.Is(ErrInvalidState, ErrMalformedGraph) || errors.Is(ErrMalformedGraph, ErrInvalidState) {
		t.Error("sentinels must be distinct")
	}
	wrapped := fmt.Errorf("%w: conversation is empty", ErrInvalidState)
	if !errors.Is(wrapped, ErrInvalidState) {
		t.Error("expected wrapped ErrInvalidState to match")
	}
}
