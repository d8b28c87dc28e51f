// pattern: Imperative Shell

// Package runner resolves a task against a project tree and runs it.
//
// Directories are passed explicitly down the recursion and to every shell
// command; the process working directory is never changed, so a Runner may
// be used from several goroutines at once.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"dev/internal/config"
	"dev/internal/deverr"
	"dev/internal/logging"
	"dev/internal/task"
)

// Config controls project file lookup.
type Config struct {
	FileName string // defaults to config.ProjectFileName
}

// Runner is the project resolver.
type Runner struct {
	cfg    Config
	exec   *Executor
	logger *logging.ScopedLogger
}

// New creates a Runner that executes commands through shell.
func New(cfg Config, shell CommandRunner, logProvider logging.LoggerProvider) *Runner {
	if cfg.FileName == "" {
		cfg.FileName = config.ProjectFileName
	}
	return &Runner{
		cfg:    cfg,
		exec:   NewExecutor(shell, logProvider.For("executor")),
		logger: logProvider.For("runner"),
	}
}

// Run loads the project in dir and runs name there or in its subprojects.
func (r *Runner) Run(ctx context.Context, dir string, name task.Name) error {
	root, err := canonicalDir(dir)
	if err != nil {
		return err
	}
	r.logger.Info("run started", "task", name.String(), "root", root)
	if err := r.runProject(ctx, root, name, []string{root}); err != nil {
		r.logger.Error("run failed", "task", name.String(), "root", root, "error", err.Error())
		return err
	}
	r.logger.Info("run finished", "task", name.String(), "root", root)
	return nil
}

// runProject applies the precedence rules to one loaded project. stack holds
// the canonical directories on the current recursion path, dir included.
func (r *Runner) runProject(ctx context.Context, dir string, name task.Name, stack []string) error {
	cfg, err := config.Load(dir, r.cfg.FileName)
	if err != nil {
		return err
	}

	logger := r.logger.With("dir", dir, "task", name.String())
	if ignored := cfg.Commands.Ignored(); len(ignored) > 0 {
		logger.Debug("ignoring unknown task keys", "keys", ignored)
	}

	subprojects := cfg.SubprojectList()
	switch {
	case len(subprojects) > 0:
		// Subprojects win; local commands are not run.
		logger.Info("delegating to subprojects", "count", len(subprojects))
		return r.runSubprojects(ctx, dir, name, subprojects, stack)
	case cfg.Commands != nil:
		// No subprojects, or an explicitly empty list.
		logger.Debug("running local commands")
		return r.exec.Execute(ctx, dir, name, cfg.Commands.Lookup(name))
	default:
		return deverr.NewYmlProblem(fmt.Sprintf("%s, no tasks or subprojects present", dir))
	}
}

// runSubprojects runs name in each reference, in order, resolving every
// reference against base. The first failure stops the loop.
func (r *Runner) runSubprojects(ctx context.Context, base string, name task.Name, refs []string, stack []string) error {
	for _, ref := range refs {
		if err := r.runSubproject(ctx, base, name, ref, stack); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runSubproject(ctx context.Context, base string, name task.Name, ref string, stack []string) error {
	logger := r.logger.With("subproject", ref, "base", base)

	target := ref
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, ref)
	}
	if ref == "" || !isDir(target) || !config.Exists(target, r.cfg.FileName) {
		logger.Warn("subproject not found")
		return deverr.NewSubProjectNotFound(ref)
	}

	dir, err := canonicalDir(target)
	if err != nil {
		return err
	}
	if slices.Contains(stack, dir) {
		logger.Warn("subproject cycle detected", "dir", dir)
		return deverr.NewCycleDetected(ref)
	}

	logger.Info("entering subproject", "dir", dir)
	if err := r.runProject(ctx, dir, name, append(slices.Clip(stack), dir)); err != nil {
		// The inner cause is only kept in the log.
		logger.Warn("subproject failed", "kind", deverr.KindOf(err).String(), "error", err.Error())
		return deverr.NewSubProjectFailed(ref)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// canonicalDir makes dir absolute and resolves symlinks.
func canonicalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", deverr.NewDirectoryManipulationFailed(dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", deverr.NewDirectoryManipulationFailed(dir, err)
	}
	return resolved, nil
}
