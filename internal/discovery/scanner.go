// pattern: Imperative Shell

package discovery

import (
	"os"
	"path/filepath"
	"slices"

	"dev/internal/config"
)

// Scanner walks a project tree through declared subprojects without running
// anything.
type Scanner struct {
	fileName string
}

// NewScanner creates a scanner reading fileName in every project
// (config.ProjectFileName when empty).
func NewScanner(fileName string) *Scanner {
	if fileName == "" {
		fileName = config.ProjectFileName
	}
	return &Scanner{fileName: fileName}
}

// Scan returns the tree under root in depth-first, declaration order.
// Problems below the root are reported on the affected node and the walk
// continues with its siblings; only a root that cannot be loaded is an error.
func (s *Scanner) Scan(root string) ([]DiscoveredProject, error) {
	dir, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	cfg, err := config.Load(dir, s.fileName)
	if err != nil {
		return nil, err
	}

	var projects []DiscoveredProject
	s.visit(&projects, ".", dir, cfg, 0, []string{dir})
	return projects, nil
}

func (s *Scanner) visit(out *[]DiscoveredProject, ref, dir string, cfg *config.ProjectConfig, depth int, stack []string) {
	subprojects := cfg.SubprojectList()
	project := DiscoveredProject{
		Ref:         ref,
		Path:        dir,
		Depth:       depth,
		Tasks:       cfg.Commands.Defined(),
		Subprojects: subprojects,
		Ignored:     cfg.Commands.Ignored(),
		Shadowed:    len(subprojects) > 0 && len(cfg.Commands.Defined()) > 0,
	}
	if cfg.Commands == nil && len(subprojects) == 0 {
		project.Problem = "no tasks or subprojects present"
	}
	*out = append(*out, project)

	for _, sub := range subprojects {
		child := DiscoveredProject{Ref: sub, Depth: depth + 1}

		target := sub
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, sub)
		}
		info, err := os.Stat(target)
		if sub == "" || err != nil || !info.IsDir() || !config.Exists(target, s.fileName) {
			child.Problem = "not found"
			*out = append(*out, child)
			continue
		}

		resolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			child.Problem = err.Error()
			*out = append(*out, child)
			continue
		}
		child.Path = resolved

		if slices.Contains(stack, resolved) {
			child.Problem = "cycle"
			*out = append(*out, child)
			continue
		}

		subCfg, err := config.Load(resolved, s.fileName)
		if err != nil {
			child.Problem = err.Error()
			*out = append(*out, child)
			continue
		}

		s.visit(out, sub, resolved, subCfg, depth+1, append(slices.Clip(stack), resolved))
	}
}
