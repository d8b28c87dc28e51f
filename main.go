// pattern: Imperative Shell
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"dev/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses the global flags and dispatches the rest to the CLI app.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	flags := flag.NewFlagSet("dev", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	// Stop parsing flags after the first non-flag arg (the task or command),
	// so that --help after it is handled by the command.
	flags.SetInterspersed(false)

	var opts cli.Options
	flags.StringVarP(&opts.Dir, "dir", "C", ".", "project directory to run in")
	flags.StringVarP(&opts.ConfigDir, "config-dir", "c", "", "settings, log and lock directory (default: ~/.config/dev)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "copy log records to stderr")
	flags.StringVar(&opts.LogLevel, "log-level", "", "minimum log level: debug, info, warn, error")
	flags.BoolVar(&opts.NoLock, "no-lock", false, "do not take the per-project run lock")
	showVersion := flags.Bool("version", false, "print version and exit")
	showHelp := flags.BoolP("help", "h", false, "show this help")

	parseErr := flags.Parse(args)

	app := cli.BuildApp(ctx, version, opts, out, errOut)
	app.SetOptionsHelp(flags.FlagUsages())

	switch {
	case parseErr != nil:
		fmt.Fprintf(errOut, "error: %v\n\n", parseErr)
		app.PrintHelp(errOut)
		return cli.ExitUsage
	case *showHelp:
		app.PrintHelp(out)
		return cli.ExitOK
	case *showVersion:
		fmt.Fprintln(out, version)
		return cli.ExitOK
	}

	return app.Execute(flags.Args())
}
