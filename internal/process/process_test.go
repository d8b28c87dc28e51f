package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dev/internal/logging"
)

func testLogger(t *testing.T) *logging.ScopedLogger {
	t.Helper()
	lm := logging.NewTestLogManager(100)
	t.Cleanup(func() { _ = lm.Close() })
	return lm.For("test")
}

func TestShell_RunSuccess(t *testing.T) {
	var stdout bytes.Buffer
	s := NewShell(DefaultConfig(), testLogger(t), WithOutput(&stdout, &stdout))

	if err := s.Run(context.Background(), t.TempDir(), "echo hello"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}
}

func TestShell_RunNonZeroExit(t *testing.T) {
	s := NewShell(DefaultConfig(), testLogger(t), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	err := s.Run(context.Background(), t.TempDir(), "exit 3")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
}

func TestShell_RunsInGivenDirectory(t *testing.T) {
	dir := t.TempDir()
	s := NewShell(DefaultConfig(), testLogger(t), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	if err := s.Run(context.Background(), dir, "touch marker"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("marker not created in dir: %v", err)
	}
}

func TestShell_StartFailure(t *testing.T) {
	s := NewShell(Config{Binary: "definitely-not-a-shell-binary", Args: []string{"-c"}}, testLogger(t))

	err := s.Run(context.Background(), t.TempDir(), "true")
	if err == nil {
		t.Fatal("Run() should fail when the shell cannot start")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Error("start failure should not be an *ExitError")
	}
}

func TestShell_MissingDirectory(t *testing.T) {
	s := NewShell(DefaultConfig(), testLogger(t))

	if err := s.Run(context.Background(), filepath.Join(t.TempDir(), "gone"), "true"); err == nil {
		t.Fatal("Run() should fail in a missing directory")
	}
}

func TestShell_Env(t *testing.T) {
	var stdout bytes.Buffer
	cfg := DefaultConfig()
	cfg.Env = []string{"DEV_TEST_VALUE=42"}
	s := NewShell(cfg, testLogger(t), WithOutput(&stdout, &stdout))

	if err := s.Run(context.Background(), t.TempDir(), "echo $DEV_TEST_VALUE"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "42" {
		t.Errorf("stdout = %q, want %q", got, "42")
	}
}

func TestShell_ContextCancelKillsCommand(t *testing.T) {
	s := NewShell(DefaultConfig(), testLogger(t),
		WithInput(strings.NewReader("")), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Run(ctx, t.TempDir(), "sleep 30; true")
	if err == nil {
		t.Fatal("Run() should fail when the context is cancelled")
	}
	if time.Since(start) > 10*time.Second {
		t.Error("command was not killed on cancellation")
	}
}

func TestShell_ContextCancelKillsSpawnedProcesses(t *testing.T) {
	dir := t.TempDir()
	s := NewShell(DefaultConfig(), testLogger(t),
		WithInput(strings.NewReader("")), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx, dir, "(sleep 1; touch after-cancel)"); err == nil {
		t.Fatal("Run() should fail when the context is cancelled")
	}

	time.Sleep(2 * time.Second)
	if _, err := os.Stat(filepath.Join(dir, "after-cancel")); err == nil {
		t.Error("subshell kept running after cancellation")
	}
}

func TestShell_LogsExitCode(t *testing.T) {
	lm := logging.NewTestLogManager(100)
	defer func() { _ = lm.Close() }()
	s := NewShell(DefaultConfig(), lm.For("shell"), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	_ = s.Run(context.Background(), t.TempDir(), "exit 7")

	found := false
	for _, entry := range lm.Drain() {
		if entry.Message == "command exited" {
			if code, ok := entry.Fields["exit_code"].(float64); !ok || code != 7 {
				t.Errorf("exit_code field = %v, want 7", entry.Fields["exit_code"])
			}
			found = true
		}
	}
	if !found {
		t.Error("expected a 'command exited' log entry")
	}
}

func TestShell_WithInput(t *testing.T) {
	dir := t.TempDir()
	s := NewShell(DefaultConfig(), logging.NopLogger(), WithInput(strings.NewReader("from stdin\n")))

	if err := s.Run(context.Background(), dir, "cat > got"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "got"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "from stdin\n" {
		t.Errorf("child read %q", data)
	}
}
