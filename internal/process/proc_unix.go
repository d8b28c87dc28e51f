//go:build !windows

package process

import (
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/mattn/go-isatty"
)

// configureProcessGroup starts cmd in its own process group so that
// cancellation kills the shell together with everything it spawned. A child
// reading a terminal stays in the foreground group, where the terminal
// already delivers Ctrl-C to the whole group.
func configureProcessGroup(cmd *exec.Cmd, stdin io.Reader) {
	if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid targets the whole group (shell and its children).
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
