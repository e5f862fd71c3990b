package scan

import (
	"os"
	"path/filepath"
	"strings"
)

// commandRegistry holds the contents of the configured registry files
// (package.json script blocks, cli-pipeline shell registries). Membership is
// a textual check: a file is "wired in" if its identifier appears in any
// registry file.
type commandRegistry struct {
	contents []string
}

// loadRegistry reads each configured registry file under root. Globs are
// supported; unreadable matches become warnings.
func loadRegistry(root string, patterns []string) (*commandRegistry, []Warning) {
	reg := &commandRegistry{}
	var warnings []Warning

	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, pattern)
		}

		matches, err := filepath.Glob(full)
		if err != nil {
			warnings = append(warnings, Warning{Path: pattern, Message: err.Error()})
			continue
		}

		for _, m := range matches {
			data, err := os.ReadFile(m)
			if err != nil {
				warnings = append(warnings, Warning{Path: m, Message: err.Error()})
				continue
			}
			reg.contents = append(reg.contents, string(data))
		}
	}

	return reg, warnings
}

// contains reports whether the identifier appears in any registry file.
func (r *commandRegistry) contains(id string) bool {
	if r == nil || id == "" {
		return false
	}
	for _, content := range r.contents {
		if strings.Contains(content, id) {
			return true
		}
	}
	return false
}
