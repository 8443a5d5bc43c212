package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	l.Info("hello %s", "info")
	l.Warning("careful %d", 1)
	l.Error("broken")

	for level, want := range map[string]string{
		LevelInfo:    "hello info",
		LevelWarning: "careful 1",
		LevelError:   "broken",
	} {
		data, err := os.ReadFile(filepath.Join(dir, FileName(level)))
		if err != nil {
			t.Fatalf("Failed to read %s log: %v", level, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %s log to contain %q, got %q", level, want, data)
		}
	}
}

func TestCleanLogs(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	l.Info("something")
	if err := l.CleanLogs(LevelInfo); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, FileName(LevelInfo)))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty info log, got %d bytes", info.Size())
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range []string{"info", "warning", "error"} {
		if !ValidLevel(level) {
			t.Errorf("Expected %s to be valid", level)
		}
	}
	for _, level := range []string{"", "debug", "../info"} {
		if ValidLevel(level) {
			t.Errorf("Expected %q to be invalid", level)
		}
	}
}

func TestNewDiscard(t *testing.T) {
	l := NewDiscard()
	l.Info("ignored")
	if err := l.CleanLogs(LevelInfo); err != nil {
		t.Errorf("CleanLogs on discard logger should be a no-op, got %v", err)
	}
}
