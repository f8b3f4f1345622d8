package utils

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	root := errors.New("boom")
	err := fmt.Errorf("outer: %w", NewAppError("snapshot.refresh", "history source failed", root))

	if !errors.Is(err, root) {
		t.Fatalf("expected wrapped error to match root cause")
	}
	if Op(err) != "snapshot.refresh" {
		t.Fatalf("unexpected op %q", Op(err))
	}
	if !strings.Contains(err.Error(), "history source failed: boom") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if Op(root) != "" {
		t.Fatalf("expected empty op for plain error")
	}
}

func TestNewLoggerToRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", true)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("role", "Plant Director"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"role":"Plant Director"`) {
		t.Fatalf("expected json attribute in output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
