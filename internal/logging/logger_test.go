package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, format string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	var handler slog.Handler
	switch format {
	case "json":
		handler = newJSONHandler(&buf, levelVar)
	default:
		handler = newConsoleHandler(&buf, levelVar)
	}
	return slog.New(handler), &buf
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	logger, buf := newTestLogger(t, "console")
	NewComponentLogger(logger, "apply").Info("patched slide", Args(Int("updated", 3))...)

	line := buf.String()
	if !strings.Contains(line, "INFO apply: patched slide") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "updated=3") {
		t.Fatalf("expected attr pair, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component must not repeat as an attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	logger, buf := newTestLogger(t, "console")
	logger.Info("opened", Args(String("path", "my deck.pptx"))...)
	if !strings.Contains(buf.String(), `path="my deck.pptx"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerFlattensGroups(t *testing.T) {
	logger, buf := newTestLogger(t, "console")
	logger.WithGroup("patch").Info("done", Args(Int("skipped", 1))...)
	if !strings.Contains(buf.String(), "patch.skipped=1") {
		t.Fatalf("expected flattened group key, got %q", buf.String())
	}
}

func TestJSONHandlerRenames(t *testing.T) {
	logger, buf := newTestLogger(t, "json")
	logger.Warn("mismatch")
	line := buf.String()
	for _, want := range []string{`"ts":`, `"level":"warn"`, `"msg":"mismatch"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in json output, got %q", want, line)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"  WARN ": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Args(Error(nil))...)
}
