// pattern: Functional Core

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"dev/internal/deverr"
	"dev/internal/task"
)

// ProjectFileName is the per-directory project file.
const ProjectFileName = "dev.yml"

// SpecKind tags the variants of Spec.
type SpecKind int

const (
	Undefined SpecKind = iota // no command configured
	Single                    // one command line
	Sequence                  // command lines run in order
)

func (k SpecKind) String() string {
	switch k {
	case Single:
		return "single"
	case Sequence:
		return "sequence"
	default:
		return "undefined"
	}
}

// Spec describes what running one task means for a project.
// The zero value is Undefined.
type Spec struct {
	kind     SpecKind
	commands []string
}

// NewSingle returns a Spec running one command line.
func NewSingle(command string) Spec {
	return Spec{kind: Single, commands: []string{command}}
}

// NewSequence returns a Spec running commands in order. An empty sequence is
// valid and succeeds without running anything.
func NewSequence(commands ...string) Spec {
	return Spec{kind: Sequence, commands: slices.Clone(commands)}
}

func (s Spec) Kind() SpecKind {
	return s.kind
}

// Commands returns a copy of the command lines. Undefined has none.
func (s Spec) Commands() []string {
	return slices.Clone(s.commands)
}

// UnmarshalYAML accepts a scalar (Single), a sequence of scalars (Sequence)
// or null (Undefined).
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.AliasNode:
		return s.UnmarshalYAML(node.Alias)
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			*s = Spec{}
			return nil
		}
		*s = NewSingle(node.Value)
		return nil
	case yaml.SequenceNode:
		cmds := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.AliasNode {
				item = item.Alias
			}
			if item.Kind != yaml.ScalarNode || item.ShortTag() == "!!null" {
				return fmt.Errorf("line %d: each command in a list must be a command string", item.Line)
			}
			cmds = append(cmds, item.Value)
		}
		*s = NewSequence(cmds...)
		return nil
	default:
		return fmt.Errorf("line %d: task must be a command string or a list of command strings", node.Line)
	}
}

// Commands maps task names to their Spec for one project.
type Commands struct {
	specs   map[task.Name]Spec
	ignored []string
}

// NewCommands builds a Commands value from specs.
func NewCommands(specs map[task.Name]Spec) *Commands {
	c := &Commands{specs: make(map[task.Name]Spec, len(specs))}
	for n, s := range specs {
		c.specs[n] = s
	}
	return c
}

// Lookup returns the Spec for name, or an Undefined Spec.
func (c *Commands) Lookup(name task.Name) Spec {
	if c == nil {
		return Spec{}
	}
	return c.specs[name]
}

// Defined returns the task names with a non-Undefined Spec, in task.All order.
func (c *Commands) Defined() []task.Name {
	var out []task.Name
	for _, n := range task.All() {
		if c.Lookup(n).Kind() != Undefined {
			out = append(out, n)
		}
	}
	return out
}

// Ignored returns keys under commands that are not task names.
func (c *Commands) Ignored() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.ignored)
}

func (c *Commands) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		return c.UnmarshalYAML(node.Alias)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: commands must be a mapping of task names", node.Line)
	}

	c.specs = make(map[task.Name]Spec)
	c.ignored = nil
	seen := make(map[string]int, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		if line, ok := seen[key]; ok {
			return fmt.Errorf("line %d: task %q already defined at line %d", node.Content[i].Line, key, line)
		}
		seen[key] = node.Content[i].Line
		name, err := task.Parse(key)
		if err != nil {
			c.ignored = append(c.ignored, key)
			continue
		}
		var spec Spec
		if err := node.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.specs[name] = spec
	}
	return nil
}

// ProjectConfig is the content of one dev.yml. Nil fields were absent from
// the file; a non-nil empty Subprojects was written as an empty list.
type ProjectConfig struct {
	Commands    *Commands `yaml:"commands"`
	Subprojects *[]string `yaml:"subprojects"`
}

// SubprojectList returns the declared subprojects, or nil.
func (p *ProjectConfig) SubprojectList() []string {
	if p.Subprojects == nil {
		return nil
	}
	return *p.Subprojects
}

// Parse decodes a project file. dir is used only for diagnostics.
func Parse(dir string, data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, deverr.NewYmlProblem(fmt.Sprintf("%s: %v", dir, err))
	}
	return &cfg, nil
}

// Load reads and parses fileName inside dir.
func Load(dir, fileName string) (*ProjectConfig, error) {
	path := filepath.Join(dir, fileName)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, deverr.NewFileNotFound(dir)
		}
		return nil, deverr.NewFileUnreadable(dir, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deverr.NewFileUnreadable(dir, err)
	}

	return Parse(dir, data)
}

// Exists reports whether dir contains fileName.
func Exists(dir, fileName string) bool {
	_, err := os.Stat(filepath.Join(dir, fileName))
	return err == nil
}
