// pattern: Functional Core

// Package deverr defines the failures a dev run can end with.
package deverr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	CommandUndefined Kind = iota + 1
	FileNotFound
	FileUnreadable
	YmlProblem
	ProcessFailed
	DirectoryManipulationFailed
	SubProjectFailed
	SubProjectNotFound
	CycleDetected
)

var kindNames = map[Kind]string{
	CommandUndefined:            "CommandUndefined",
	FileNotFound:                "FileNotFound",
	FileUnreadable:              "FileUnreadable",
	YmlProblem:                  "YmlProblem",
	ProcessFailed:               "ProcessFailed",
	DirectoryManipulationFailed: "DirectoryManipulationFailed",
	SubProjectFailed:            "SubProjectFailed",
	SubProjectNotFound:          "SubProjectNotFound",
	CycleDetected:               "CycleDetected",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type for dev failures. Which payload fields are
// set depends on Kind.
type Error struct {
	Kind    Kind
	Task    string // CommandUndefined
	Path    string // directory, subproject reference or command line
	Context string // YmlProblem diagnostic
	Err     error  // underlying cause, never another *Error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrCommandUndefined            = &Error{Kind: CommandUndefined}
	ErrFileNotFound                = &Error{Kind: FileNotFound}
	ErrFileUnreadable              = &Error{Kind: FileUnreadable}
	ErrYmlProblem                  = &Error{Kind: YmlProblem}
	ErrProcessFailed               = &Error{Kind: ProcessFailed}
	ErrDirectoryManipulationFailed = &Error{Kind: DirectoryManipulationFailed}
	ErrSubProjectFailed            = &Error{Kind: SubProjectFailed}
	ErrSubProjectNotFound          = &Error{Kind: SubProjectNotFound}
	ErrCycleDetected               = &Error{Kind: CycleDetected}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case CommandUndefined:
		msg = fmt.Sprintf("command to run %s was not defined", e.Task)
	case FileNotFound:
		msg = fmt.Sprintf("dev.yml was not found in %s", e.Path)
	case FileUnreadable:
		msg = fmt.Sprintf("dev.yml could not be read in %s", e.Path)
	case YmlProblem:
		msg = fmt.Sprintf("dev.yml could not be parsed at: %s", e.Context)
	case ProcessFailed:
		msg = fmt.Sprintf("process failed: `%s`", e.Path)
	case DirectoryManipulationFailed:
		msg = fmt.Sprintf("directory inaccessible: %s", e.Path)
	case SubProjectFailed:
		msg = fmt.Sprintf("subproject failed: `%s`", e.Path)
	case SubProjectNotFound:
		msg = fmt.Sprintf("subproject not found: `%s`", e.Path)
	case CycleDetected:
		msg = fmt.Sprintf("subproject cycle detected: `%s`", e.Path)
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func NewCommandUndefined(task string) *Error {
	return &Error{Kind: CommandUndefined, Task: task}
}

func NewFileNotFound(dir string) *Error {
	return &Error{Kind: FileNotFound, Path: dir}
}

func NewFileUnreadable(dir string, cause error) *Error {
	return &Error{Kind: FileUnreadable, Path: dir, Err: cause}
}

func NewYmlProblem(context string) *Error {
	return &Error{Kind: YmlProblem, Context: context}
}

func NewProcessFailed(command string, cause error) *Error {
	return &Error{Kind: ProcessFailed, Path: command, Err: cause}
}

func NewDirectoryManipulationFailed(path string, cause error) *Error {
	return &Error{Kind: DirectoryManipulationFailed, Path: path, Err: cause}
}

// NewSubProjectFailed deliberately drops the inner failure; callers log it.
func NewSubProjectFailed(ref string) *Error {
	return &Error{Kind: SubProjectFailed, Path: ref}
}

func NewSubProjectNotFound(ref string) *Error {
	return &Error{Kind: SubProjectNotFound, Path: ref}
}

func NewCycleDetected(ref string) *Error {
	return &Error{Kind: CycleDetected, Path: ref}
}
