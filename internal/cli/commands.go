// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"dev/internal/config"
	"dev/internal/discovery"
	"dev/internal/instance"
	"dev/internal/logging"
	"dev/internal/process"
	"dev/internal/runner"
	"dev/internal/task"
)

// Options are the global flags.
type Options struct {
	Dir       string // project directory to start in
	ConfigDir string // settings, log and lock directory
	Verbose   bool   // copy log records to stderr
	LogLevel  string // overrides the settings file
	NoLock    bool
}

// BuildApp creates and configures the CLI application with all commands.
func BuildApp(ctx context.Context, version string, opts Options, out, errOut io.Writer) *App {
	settings := loadSettings(opts, errOut)
	app := NewApp(version, out, errOut, NewStyles(errOut, settings.Theme))

	for _, name := range task.All() {
		app.AddCommand(&Command{
			Name:    name.String(),
			Summary: fmt.Sprintf("Run the %s task", name),
			Usage:   fmt.Sprintf("Usage: dev [options] %s", name),
			Task:    true,
			Run: func(args []string) error {
				if len(args) > 0 {
					return usageErrorf("%s takes no arguments, got %q", name, strings.Join(args, " "))
				}
				return runTask(ctx, opts, settings, name, out, errOut)
			},
		})
	}

	app.AddCommand(&Command{
		Name:    "list",
		Summary: "Show the project tree and the tasks each project defines",
		Usage:   "Usage: dev [options] list",
		Run: func(args []string) error {
			return runList(opts, NewStyles(out, settings.Theme), out)
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: dev version",
		Run: func(args []string) error {
			fmt.Fprintln(out, version)
			return nil
		},
	})

	return app
}

func loadSettings(opts Options, errOut io.Writer) config.Settings {
	settings, err := config.LoadSettingsFromDir(config.ResolveDir(opts.ConfigDir))
	if err != nil {
		fmt.Fprintf(errOut, "Warning: failed to load settings: %v\n", err)
	}
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}
	return settings
}

// openLogs starts file logging, falling back to a no-op provider when the log
// file cannot be opened.
func openLogs(opts Options, settings config.Settings, errOut io.Writer) (logging.LoggerProvider, func()) {
	cfg := logging.Config{
		FilePath:   settings.ResolveLogFile(config.ResolveDir(opts.ConfigDir)),
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Level:      settings.LogLevel,
	}
	if opts.Verbose {
		cfg.Console = errOut
	}

	mgr, err := logging.NewManager(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "Warning: logging disabled: %v\n", err)
		return logging.Nop(), func() {}
	}
	return mgr, func() { _ = mgr.Close() }
}

// runTask runs one task from opts.Dir with the configured shell.
func runTask(ctx context.Context, opts Options, settings config.Settings, name task.Name, out, errOut io.Writer) error {
	if err := settings.ValidateShellWith(exec.LookPath); err != nil {
		return err
	}

	logs, closeLogs := openLogs(opts, settings, errOut)
	defer closeLogs()
	logger := logs.For("cli")

	if !opts.NoLock {
		fl, err := instance.Lock(config.ResolveDir(opts.ConfigDir), lockKey(opts.Dir))
		if err != nil {
			logger.Warn("run lock unavailable", "error", err)
			return err
		}
		defer instance.Cleanup(fl)
	}

	shell := process.NewShell(process.Config{
		Binary: settings.DetectedShell(),
		Args:   []string{"-c"},
	}, logs.For("process"), process.WithOutput(out, errOut))

	r := runner.New(runner.Config{}, shell, logs)
	return r.Run(ctx, opts.Dir, name)
}

// lockKey is the canonical form of dir when it can be resolved.
func lockKey(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func runList(opts Options, styles *Styles, out io.Writer) error {
	projects, err := discovery.NewScanner("").Scan(opts.Dir)
	if err != nil {
		return err
	}
	writeTree(out, styles, projects)
	return nil
}

// writeTree prints one line per project: indented reference, then the tasks
// it defines or the reason it cannot run.
func writeTree(w io.Writer, styles *Styles, projects []discovery.DiscoveredProject) {
	labels := make([]string, len(projects))
	width := 0
	for i, p := range projects {
		labels[i] = strings.Repeat("  ", p.Depth) + styles.AccentStyle().Render(p.Ref)
		if p.Depth == 0 {
			labels[i] += " " + styles.SubtleStyle().Render("("+p.Path+")")
		}
		width = max(width, 2*p.Depth+ansi.StringWidth(p.Ref))
	}

	for i, p := range projects {
		var detail string
		switch {
		case !p.Runnable():
			detail = styles.ErrorStyle().Render(p.Problem)
		case len(p.Subprojects) > 0:
			detail = styles.SubtleStyle().Render(fmt.Sprintf("%d subprojects", len(p.Subprojects)))
			if p.Shadowed {
				detail += " " + styles.WarnStyle().Render("(local commands shadowed)")
			}
		case len(p.Tasks) == 0:
			detail = styles.SubtleStyle().Render("no tasks")
		default:
			names := make([]string, len(p.Tasks))
			for j, n := range p.Tasks {
				names[j] = n.String()
			}
			detail = strings.Join(names, " ")
		}
		if len(p.Ignored) > 0 {
			detail += " " + styles.WarnStyle().Render("ignored: "+strings.Join(p.Ignored, ","))
		}

		if p.Depth == 0 {
			fmt.Fprintf(w, "%s\n", labels[i])
			if detail != "" {
				fmt.Fprintf(w, "  %s\n", detail)
			}
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", padRight(labels[i], width), detail)
	}
}
