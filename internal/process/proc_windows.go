//go:build windows

package process

import (
	"io"
	"os/exec"
)

func configureProcessGroup(cmd *exec.Cmd, stdin io.Reader) {}
