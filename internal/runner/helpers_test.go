package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"dev/internal/logging"
	"dev/internal/process"
)

// writeTree creates dev.yml files. Keys are directories relative to root
// ("" for root itself), values the file contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		dir := filepath.Join(root, rel)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "dev.yml"), []byte(content), 0644); err != nil {
			t.Fatalf("write %s/dev.yml: %v", dir, err)
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func canon(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("EvalSymlinks(%s): %v", path, err)
	}
	return resolved
}

// newShellRunner returns a Runner backed by a real sh with output captured.
func newShellRunner(t *testing.T) (*Runner, *logging.TestLogManager) {
	t.Helper()
	lm := logging.NewTestLogManager(1000)
	t.Cleanup(func() { _ = lm.Close() })
	var out bytes.Buffer
	shell := process.NewShell(process.DefaultConfig(), lm.For("process"), process.WithOutput(&out, &out))
	return New(Config{}, shell, lm), lm
}

type call struct {
	dir     string
	command string
}

// recordingShell records commands and fails those listed in fail.
type recordingShell struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]bool
}

func (s *recordingShell) Run(_ context.Context, dir, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{dir: dir, command: command})
	if s.fail[command] {
		return &process.ExitError{Code: 1}
	}
	return nil
}

func (s *recordingShell) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.command
	}
	return out
}
