package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings are user-level preferences, independent of any project.
type Settings struct {
	Theme    string `yaml:"theme"`
	Shell    string `yaml:"shell"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// LookPathFunc is the function signature for looking up executables.
type LookPathFunc func(name string) (string, error)

const (
	defaultTheme    = "mocha"
	defaultLogLevel = "info"
	fallbackShell   = "/bin/sh"
	settingsFile    = "config.yaml"
)

func DefaultSettings() Settings {
	return Settings{
		Theme:    defaultTheme,
		LogLevel: defaultLogLevel,
	}
}

// LoadSettingsFromDir loads config.yaml from dir.
func LoadSettingsFromDir(dir string) (Settings, error) {
	return LoadSettingsFrom(filepath.Join(dir, settingsFile))
}

// LoadSettingsFrom reads a settings file. A missing file yields defaults.
// On a malformed file the defaults are returned along with the error.
func LoadSettingsFrom(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("%s: %w", path, err)
	}

	if s.Theme == "" {
		s.Theme = defaultTheme
	}
	if s.LogLevel == "" {
		s.LogLevel = defaultLogLevel
	}

	return s, nil
}

// DetectedShell returns the configured shell or auto-detects one.
func (s *Settings) DetectedShell() string {
	return s.DetectedShellWith(exec.LookPath)
}

// DetectedShellWith returns the configured shell, or "sh" resolved on PATH,
// or /bin/sh.
func (s *Settings) DetectedShellWith(lookPath LookPathFunc) string {
	if s.Shell != "" {
		return s.Shell
	}
	if path, err := lookPath("sh"); err == nil {
		return path
	}
	return fallbackShell
}

// ValidateShellWith checks that a configured shell can be found.
func (s *Settings) ValidateShellWith(lookPath LookPathFunc) error {
	if s.Shell == "" {
		return nil
	}
	if _, err := lookPath(s.Shell); err != nil {
		return fmt.Errorf("shell %q not found in PATH", s.Shell)
	}
	return nil
}

// ResolveLogFile returns the log file path, defaulting to dev.log inside dir.
func (s *Settings) ResolveLogFile(dir string) string {
	if s.LogFile == "" {
		return filepath.Join(dir, "dev.log")
	}
	return expandHome(s.LogFile)
}

// ResolveDir returns configDir when set, otherwise DefaultDir.
func ResolveDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	return DefaultDir()
}

// DefaultDir is $XDG_CONFIG_HOME/dev, or ~/.config/dev.
func DefaultDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dev")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "dev")
	}

	return filepath.Join(home, ".config", "dev")
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
