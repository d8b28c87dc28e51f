// pattern: Functional Core

package discovery

import "dev/internal/task"

// DiscoveredProject is one node of a project tree, in walk order.
type DiscoveredProject struct {
	Ref         string      // Reference as written in the parent ("." for the root)
	Path        string      // Canonical directory, empty if it could not be resolved
	Depth       int         // 0 for the root
	Tasks       []task.Name // Tasks with a command defined locally
	Subprojects []string    // Declared subproject references
	Ignored     []string    // Keys under commands that are not task names
	Shadowed    bool        // Local commands exist but subprojects take precedence
	Problem     string      // Why this node cannot run; empty when it can
}

// Runnable reports whether the node loaded cleanly.
func (p DiscoveredProject) Runnable() bool {
	return p.Problem == ""
}
