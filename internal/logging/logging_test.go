package logging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "devhub.log")
	log, err := New(path, "info")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Debug("hidden")
	log.Info("session started", zap.String("session", "shell"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "session started" || entry["session"] != "shell" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "x.log"), "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestStack(t *testing.T) {
	if f := Stack(errors.New("plain")); f.Key != "" {
		t.Errorf("Stack(plain) = %+v, want skip", f)
	}
	f := Stack(goerrors.Wrap(errors.New("boom"), 0))
	if f.Key != "stack" || !strings.Contains(f.String, "boom") {
		t.Errorf("Stack(wrapped) = %+v", f)
	}
}
