// pattern: Functional Core

package task

import (
	"errors"
	"fmt"
)

// Name identifies a task a project can define.
type Name int

const (
	Build   Name = iota + 1 // build
	Package                 // package
	Check                   // check
	Clean                   // clean
	Install                 // install
	Run                     // run
)

// ErrUnknown is returned by Parse for strings that are not a task name.
var ErrUnknown = errors.New("unknown task")

var names = map[Name]string{
	Build:   "build",
	Package: "package",
	Check:   "check",
	Clean:   "clean",
	Install: "install",
	Run:     "run",
}

var byString = func() map[string]Name {
	m := make(map[string]Name, len(names))
	for n, s := range names {
		m[s] = n
	}
	return m
}()

// All returns every task name in declaration order.
func All() []Name {
	return []Name{Build, Package, Check, Clean, Install, Run}
}

// Parse maps a canonical lowercase string to its Name.
// Matching is exact; there is no default for unrecognized input.
func Parse(s string) (Name, error) {
	if n, ok := byString[s]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// String returns the canonical lowercase form.
func (n Name) String() string {
	if s, ok := names[n]; ok {
		return s
	}
	return fmt.Sprintf("task(%d)", int(n))
}

// Valid reports whether n is one of the declared task names.
func (n Name) Valid() bool {
	_, ok := names[n]
	return ok
}

func (n Name) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, int(n))
	}
	return []byte(names[n]), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
