// pattern: Imperative Shell

package runner

import (
	"context"

	"dev/internal/config"
	"dev/internal/deverr"
	"dev/internal/logging"
	"dev/internal/task"
)

// CommandRunner runs one command line in dir and reports whether it exited
// with status zero. *process.Shell implements it.
type CommandRunner interface {
	Run(ctx context.Context, dir, command string) error
}

// Executor runs the commands a Spec describes for a single project.
type Executor struct {
	shell  CommandRunner
	logger *logging.ScopedLogger
}

// NewExecutor creates an Executor.
func NewExecutor(shell CommandRunner, logger *logging.ScopedLogger) *Executor {
	return &Executor{shell: shell, logger: logger}
}

// Execute runs spec in dir. A Sequence stops at the first failing command;
// an empty Sequence succeeds.
func (e *Executor) Execute(ctx context.Context, dir string, name task.Name, spec config.Spec) error {
	switch spec.Kind() {
	case config.Undefined:
		e.logger.Warn("task not defined", "task", name.String(), "dir", dir)
		return deverr.NewCommandUndefined(name.String())
	case config.Single:
		return e.run(ctx, dir, spec.Commands()[0])
	case config.Sequence:
		cmds := spec.Commands()
		for i, cmd := range cmds {
			if err := e.run(ctx, dir, cmd); err != nil {
				e.logger.Warn("sequence stopped", "task", name.String(), "step", i+1, "steps", len(cmds))
				return err
			}
		}
		return nil
	default:
		return deverr.NewCommandUndefined(name.String())
	}
}

func (e *Executor) run(ctx context.Context, dir, command string) error {
	if err := ctx.Err(); err != nil {
		return deverr.NewProcessFailed(command, err)
	}
	if err := e.shell.Run(ctx, dir, command); err != nil {
		return deverr.NewProcessFailed(command, err)
	}
	return nil
}
