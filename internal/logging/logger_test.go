package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToDatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "debug", "test"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Debug("probe", "tag", "#fitness")
	WithPrefix("fixture").Warn("served", "status", 404)
	Close()

	matches, _ := filepath.Glob(filepath.Join(dir, "logs", "trendscope-*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one log file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"trendscope started", "probe", "#fitness", "fixture", "shutting down"} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q:\n%s", want, text)
		}
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	if err := Init(t.TempDir(), "loud", "test"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggingBeforeInitIsSafe(t *testing.T) {
	Info("nobody is listening")
	Error("still fine")
}
