package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/msalah0e/pocketllm/internal/catalog"
)

// Status holds detection results for a single dependency.
type Status struct {
	Dep     catalog.Dependency
	Found   bool
	Version string
	Path    string
}

// Checker detects the external tooling the delegating backends need.
type Checker struct {
	Python   string            // interpreter used for module imports
	Binaries map[string]string // overrides for executable names, keyed by dependency name
}

// Check reports the presence of every dependency, in order.
func (c Checker) Check(ctx context.Context, deps []catalog.Dependency) []Status {
	results := make([]Status, 0, len(deps))
	for _, d := range deps {
		results = append(results, c.CheckOne(ctx, d))
	}
	return results
}

// CheckOne reports the presence of a single dependency.
func (c Checker) CheckOne(ctx context.Context, d catalog.Dependency) Status {
	st := Status{Dep: d}

	if d.IsPython() {
		python := c.Python
		if python == "" {
			python = "python3"
		}
		path, err := exec.LookPath(python)
		if err != nil {
			return st
		}
		cmd := exec.CommandContext(ctx, path, "-c", importProbe(d.Module))
		out, err := cmd.Output()
		if err != nil {
			// import failed → module not installed
			return st
		}
		st.Found = true
		st.Path = path
		st.Version = ExtractVersion(strings.TrimSpace(string(out)))
		return st
	}

	bin := d.Binary
	if override, ok := c.Binaries[d.Name]; ok && override != "" {
		bin = override
	}
	if bin == "" {
		return st
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return st
	}
	st.Found = true
	st.Path = path
	return st
}

func importProbe(module string) string {
	return fmt.Sprintf("import %s as m; print(getattr(m, '__version__', ''))", module)
}

// Missing returns the dependencies that were not found.
func Missing(statuses []Status) []catalog.Dependency {
	var out []catalog.Dependency
	for _, s := range statuses {
		if !s.Found {
			out = append(out, s.Dep)
		}
	}
	return out
}

// Packages returns the pip packages providing the given dependencies, without duplicates.
func Packages(deps []catalog.Dependency) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range deps {
		p := d.Package()
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// InstallHint returns the command that installs the missing dependencies.
func InstallHint(missing []catalog.Dependency) string {
	return "pip install " + strings.Join(Packages(missing), " ")
}

// ExtractVersion tries to pull a version number from command output.
func ExtractVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		for _, f := range fields {
			if f[0] >= '0' && f[0] <= '9' {
				return f
			}
			// "go1.24.0", "v2.0.0"
			if len(f) > 1 && containsVersion(f) {
				return f
			}
		}
		return fields[len(fields)-1]
	}
	return output
}

// containsVersion checks if a string contains a version-like pattern (e.g., "go1.24.0").
func containsVersion(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] >= '0' && s[i] <= '9' && s[i+1] == '.' {
			return true
		}
	}
	return false
}
