// pattern: Imperative Shell

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"dev/internal/logging"
)

// Config describes how command lines are handed to a shell.
type Config struct {
	Binary string   // shell binary, e.g. "sh"
	Args   []string // arguments placed before the command line, e.g. ["-c"]
	Env    []string // extra KEY=VALUE pairs appended to the inherited environment
}

// waitDelay bounds how long Wait keeps draining output after the child was
// killed, in case something outside its process group holds the pipes open.
const waitDelay = 2 * time.Second

// DefaultConfig runs command lines with "sh -c".
func DefaultConfig() Config {
	return Config{Binary: "sh", Args: []string{"-c"}}
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Shell runs command lines in a given directory, passing stdio through.
type Shell struct {
	cfg    Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *logging.ScopedLogger
}

// Option configures a Shell.
type Option func(*Shell)

// WithOutput replaces the stdout and stderr the child writes to.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Shell) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithInput replaces the child's stdin.
func WithInput(stdin io.Reader) Option {
	return func(s *Shell) {
		s.stdin = stdin
	}
}

// NewShell creates a Shell. Without options the child inherits the
// process's stdio.
func NewShell(cfg Config, logger *logging.ScopedLogger, opts ...Option) *Shell {
	if cfg.Binary == "" {
		cfg = DefaultConfig()
	}
	s := &Shell{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes command in dir and blocks until it exits. It returns nil only
// for exit status zero; a non-zero exit is reported as *ExitError, and a
// failure to start is returned as is.
func (s *Shell) Run(ctx context.Context, dir, command string) error {
	args := append(append([]string{}, s.cfg.Args...), command)
	cmd := exec.CommandContext(ctx, s.cfg.Binary, args...)
	cmd.Dir = dir
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), s.cfg.Env...)
	}
	configureProcessGroup(cmd, s.stdin)
	cmd.WaitDelay = waitDelay

	s.logger.Info("starting command", "command", command, "dir", dir, "shell", s.cfg.Binary)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		s.logger.Error("failed to start command", "error", err, "command", command)
		return fmt.Errorf("start %s: %w", s.cfg.Binary, err)
	}

	err := cmd.Wait()
	elapsed := time.Since(start)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			s.logger.Warn("command exited", "command", command, "exit_code", code, "duration", elapsed)
			return &ExitError{Code: code}
		}
		s.logger.Warn("command stopped", "command", command, "error", err)
		return err
	}

	s.logger.Info("command exited cleanly", "command", command, "duration", elapsed)
	return nil
}
