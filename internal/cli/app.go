// pattern: Functional Core
package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"dev/internal/deverr"
)

// Command represents a single CLI command with its metadata and handler.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Task    bool // listed under Tasks rather than Commands
	Run     func(args []string) error
}

// UsageError marks a failure caused by how dev was invoked.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// App represents the top-level CLI application.
type App struct {
	commands    map[string]*Command
	order       []string
	version     string
	optionsHelp string
	out         io.Writer
	errOut      io.Writer
	styles      *Styles
}

// NewApp creates a new CLI application writing to out and errOut.
func NewApp(version string, out, errOut io.Writer, styles *Styles) *App {
	return &App{
		commands: make(map[string]*Command),
		version:  version,
		out:      out,
		errOut:   errOut,
		styles:   styles,
	}
}

// AddCommand registers a command. Help lists commands in registration order.
func (a *App) AddCommand(cmd *Command) {
	if _, ok := a.commands[cmd.Name]; !ok {
		a.order = append(a.order, cmd.Name)
	}
	a.commands[cmd.Name] = cmd
}

// SetOptionsHelp sets the flag listing appended to the help text.
func (a *App) SetOptionsHelp(s string) {
	a.optionsHelp = s
}

// Execute dispatches the CLI arguments and returns the process exit code.
func (a *App) Execute(args []string) int {
	if len(args) == 0 {
		a.PrintHelp(a.errOut)
		return ExitUsage
	}

	cmdName := args[0]
	if cmdName == "help" || cmdName == "--help" || cmdName == "-h" {
		a.PrintHelp(a.out)
		return ExitOK
	}

	cmd, ok := a.commands[cmdName]
	if !ok {
		a.printError(usageErrorf("unknown task or command %q", cmdName))
		a.PrintHelp(a.errOut)
		return ExitUsage
	}

	if slices.Contains(args[1:], "--help") || slices.Contains(args[1:], "-h") {
		fmt.Fprintf(a.out, "%s\n", cmd.Usage)
		return ExitOK
	}

	if err := cmd.Run(args[1:]); err != nil {
		a.printError(err)
		var usage *UsageError
		if errors.As(err, &usage) {
			fmt.Fprintf(a.errOut, "%s\n", cmd.Usage)
			return ExitUsage
		}
		return ExitError
	}
	return ExitOK
}

func (a *App) printError(err error) {
	label := "error"
	if kind := deverr.KindOf(err); kind != 0 {
		label = fmt.Sprintf("error [%s]", kind)
	}
	fmt.Fprintf(a.errOut, "%s %s\n", a.styles.ErrorStyle().Render(label+":"), err.Error())
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	title := a.styles.TitleStyle()
	fmt.Fprintf(w, "Usage: dev [options] <task>\n\n")

	var tasks, commands []*Command
	for _, name := range a.order {
		if cmd := a.commands[name]; cmd.Task {
			tasks = append(tasks, cmd)
		} else {
			commands = append(commands, cmd)
		}
	}

	fmt.Fprintf(w, "%s\n", title.Render("Tasks:"))
	for _, cmd := range tasks {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "\n%s\n", title.Render("Commands:"))
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "help", "Show this help")

	if a.optionsHelp != "" {
		fmt.Fprintf(w, "\n%s\n%s", title.Render("Options:"), a.optionsHelp)
		if !strings.HasSuffix(a.optionsHelp, "\n") {
			fmt.Fprintln(w)
		}
	}
}
