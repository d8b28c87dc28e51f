// pattern: Imperative Shell
package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"dev/internal/instance"
)

func writeProject(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dev.yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func buildTestApp(t *testing.T, opts Options) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if opts.ConfigDir == "" {
		opts.ConfigDir = t.TempDir()
	}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return BuildApp(context.Background(), "1.2.3", opts, out, errOut), out, errOut
}

func TestBuildApp_VersionCommand_PrintsVersion(t *testing.T) {
	app, out, _ := buildTestApp(t, Options{Dir: t.TempDir()})

	if code := app.Execute([]string{"version"}); code != ExitOK {
		t.Fatalf("Execute(version) = %d", code)
	}
	if out.String() != "1.2.3\n" {
		t.Errorf("version output = %q, want %q", out.String(), "1.2.3\n")
	}
}

func TestBuildApp_RegistersEveryTask(t *testing.T) {
	app, _, _ := buildTestApp(t, Options{Dir: t.TempDir()})

	for _, name := range []string{"build", "package", "check", "clean", "install", "run"} {
		cmd, ok := app.commands[name]
		if !ok {
			t.Errorf("task %q not registered", name)
			continue
		}
		if !cmd.Task {
			t.Errorf("%q should be listed as a task", name)
		}
	}
}

func TestBuildApp_TaskRunsCommandInProjectDir(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "commands:\n  build: [\"echo hello\", \"touch built\"]\n")
	app, out, errOut := buildTestApp(t, Options{Dir: root})

	if code := app.Execute([]string{"build"}); code != ExitOK {
		t.Fatalf("Execute(build) = %d, stderr: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "hello") {
		t.Errorf("stdout = %q, want command output", out.String())
	}
	if _, err := os.Stat(filepath.Join(root, "built")); err != nil {
		t.Errorf("command did not run in the project dir: %v", err)
	}
}

func TestBuildApp_TaskFailures(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		mkdirs   []string
		task     string
		wantText string
	}{
		{
			name:     "failing command",
			files:    map[string]string{"": "commands:\n  check: exit 3\n"},
			task:     "check",
			wantText: "error [ProcessFailed]: process failed: `exit 3`",
		},
		{
			name:     "undefined task",
			files:    map[string]string{"": "commands:\n  build: exit 0\n"},
			task:     "clean",
			wantText: "error [CommandUndefined]: command to run clean was not defined",
		},
		{
			name:     "subproject without dev.yml",
			files:    map[string]string{"": "subprojects: [sub]\n"},
			mkdirs:   []string{"sub"},
			task:     "build",
			wantText: "subproject not found: `sub`",
		},
		{
			name:     "failing subproject",
			files:    map[string]string{"": "subprojects: [a]\n", "a": "commands:\n  build: exit 1\n"},
			task:     "build",
			wantText: "subproject failed: `a`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, content := range tt.files {
				writeProject(t, filepath.Join(root, rel), content)
			}
			for _, rel := range tt.mkdirs {
				if err := os.MkdirAll(filepath.Join(root, rel), 0755); err != nil {
					t.Fatal(err)
				}
			}
			app, _, errOut := buildTestApp(t, Options{Dir: root})

			if code := app.Execute([]string{tt.task}); code != ExitError {
				t.Errorf("Execute(%s) = %d, want %d", tt.task, code, ExitError)
			}
			if got := ansi.Strip(errOut.String()); !strings.Contains(got, tt.wantText) {
				t.Errorf("stderr = %q, want it to contain %q", got, tt.wantText)
			}
		})
	}
}

func TestBuildApp_TaskRejectsArguments(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "commands:\n  build: touch built\n")
	app, _, errOut := buildTestApp(t, Options{Dir: root})

	if code := app.Execute([]string{"build", "extra"}); code != ExitUsage {
		t.Errorf("Execute = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(errOut.String(), "takes no arguments") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if _, err := os.Stat(filepath.Join(root, "built")); err == nil {
		t.Error("task ran despite the usage error")
	}
}

func TestBuildApp_TaskRefusesWhileLocked(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "commands:\n  build: touch built\n")
	configDir := t.TempDir()

	held, err := instance.Lock(configDir, lockKey(root))
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	defer instance.Cleanup(held)

	app, _, errOut := buildTestApp(t, Options{Dir: root, ConfigDir: configDir})
	if code := app.Execute([]string{"build"}); code != ExitError {
		t.Errorf("Execute(build) = %d, want %d", code, ExitError)
	}
	if !strings.Contains(errOut.String(), "another dev run is active") {
		t.Errorf("stderr = %q", errOut.String())
	}

	noLock, _, errOut := buildTestApp(t, Options{Dir: root, ConfigDir: configDir, NoLock: true})
	if code := noLock.Execute([]string{"build"}); code != ExitOK {
		t.Errorf("Execute(build) with NoLock = %d, stderr: %s", code, errOut.String())
	}
}

func TestBuildApp_WritesLogFile(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "commands:\n  build: exit 0\n")
	configDir := t.TempDir()
	app, _, _ := buildTestApp(t, Options{Dir: root, ConfigDir: configDir, LogLevel: "debug"})

	if code := app.Execute([]string{"build"}); code != ExitOK {
		t.Fatalf("Execute(build) = %d", code)
	}
	data, err := os.ReadFile(filepath.Join(configDir, "dev.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "starting command") {
		t.Errorf("log file missing command entry:\n%s", data)
	}
}

func TestBuildApp_VerboseCopiesLogsToStderr(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "commands:\n  build: exit 0\n")
	app, _, errOut := buildTestApp(t, Options{Dir: root, Verbose: true, LogLevel: "debug"})

	if code := app.Execute([]string{"build"}); code != ExitOK {
		t.Fatalf("Execute(build) = %d", code)
	}
	if !strings.Contains(errOut.String(), "starting command") {
		t.Errorf("stderr = %q, want log output", errOut.String())
	}
}

func TestBuildApp_MalformedSettingsWarns(t *testing.T) {
	configDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("theme: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, errOut := buildTestApp(t, Options{Dir: t.TempDir(), ConfigDir: configDir})

	if !strings.Contains(errOut.String(), "Warning: failed to load settings") {
		t.Errorf("stderr = %q, want a settings warning", errOut.String())
	}
}

func TestBuildApp_ListShowsTree(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "subprojects: [api, web, gone]\ncommands:\n  build: exit 0\n")
	writeProject(t, filepath.Join(root, "api"), "commands:\n  build: go build\n  check: go vet\n")
	writeProject(t, filepath.Join(root, "web"), "commands:\n  lint: eslint\n  run: npm start\n")
	app, out, errOut := buildTestApp(t, Options{Dir: root})

	if code := app.Execute([]string{"list"}); code != ExitOK {
		t.Fatalf("Execute(list) = %d, stderr: %s", code, errOut.String())
	}
	output := ansi.Strip(out.String())

	for _, want := range []string{
		"3 subprojects (local commands shadowed)",
		"  api   build check",
		"  web   run ignored: lint",
		"  gone  not found",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("list output missing %q:\n%s", want, output)
		}
	}
}

func TestBuildApp_ListWithoutProject(t *testing.T) {
	app, _, errOut := buildTestApp(t, Options{Dir: t.TempDir()})

	if code := app.Execute([]string{"list"}); code != ExitError {
		t.Errorf("Execute(list) = %d, want %d", code, ExitError)
	}
	if !strings.Contains(ansi.Strip(errOut.String()), "[FileNotFound]") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestBuildApp_ListAlignsWideNames(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "subprojects: [ünïcödé, ab]\n")
	writeProject(t, filepath.Join(root, "ünïcödé"), "commands:\n  build: exit 0\n")
	writeProject(t, filepath.Join(root, "ab"), "commands:\n  check: exit 0\n")
	app, out, errOut := buildTestApp(t, Options{Dir: root})

	if code := app.Execute([]string{"list"}); code != ExitOK {
		t.Fatalf("Execute(list) = %d, stderr: %s", code, errOut.String())
	}

	columns := map[string]int{}
	for _, line := range strings.Split(ansi.Strip(out.String()), "\n") {
		for _, name := range []string{"build", "check"} {
			if i := strings.Index(line, name); i >= 0 {
				columns[name] = ansi.StringWidth(line[:i])
			}
		}
	}
	if len(columns) != 2 || columns["build"] != columns["check"] {
		t.Errorf("task columns misaligned: %v\n%s", columns, out.String())
	}
}
