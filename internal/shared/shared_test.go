package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestApplyLogLevel(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want log.Level
	}{
		{name: "debug", in: "debug", want: log.DebugLevel},
		{name: "upper case", in: "WARN", want: log.WarnLevel},
		{name: "padded", in: "  error ", want: log.ErrorLevel},
		{name: "unknown falls back to info", in: "chatty", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(&buf)
			SetLogLevel(l, log.FatalLevel)

			ApplyLogLevel(l, tt.in)
			if got := l.GetLevel(); got != tt.want {
				t.Errorf("ApplyLogLevel(%q) level = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	t.Run("empty keeps current level", func(t *testing.T) {
		l := NewLogger(&bytes.Buffer{})
		SetLogLevel(l, log.ErrorLevel)
		ApplyLogLevel(l, "")
		if l.GetLevel() != log.ErrorLevel {
			t.Errorf("expected level to stay error, got %v", l.GetLevel())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Errorf("expected unique IDs, got %s twice", a)
	}
	if len(a) != 36 {
		t.Errorf("expected canonical uuid length 36, got %d", len(a))
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jarvis.log")

	l, closer, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	l.Info("hello from the shell")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from the shell") {
		t.Errorf("expected log line in file, got %q", string(data))
	}
}
