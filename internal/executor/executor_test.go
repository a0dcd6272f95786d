package executor

import (
	"context"
	"strings"
	"testing"
)

func TestExecuteCapturesStdout(t *testing.T) {
	out, err := New().Execute(context.Background(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("Expected hello, got %q", out)
	}
}

func TestExecuteIncludesStderr(t *testing.T) {
	_, err := New().Execute(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "stderr: broken") {
		t.Errorf("Expected stderr in error, got %v", err)
	}
}

func TestExecuteMissingBinary(t *testing.T) {
	if _, err := New().Execute(context.Background(), "definitely-not-a-real-binary"); err == nil {
		t.Error("Expected error for missing binary")
	}
}
