// Package deps checks the external binaries loopfetch shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"loopfetch/internal/config"
)

// Requirement defines an external dependency loopfetch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the dependency set for the given configuration.
// Only disk image builds shell out, so everything here is optional for a
// plain download run.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "hdiutil",
			Command:     cfg.DiskImage.Binary,
			Description: "builds the optional .dmg archive of the download tree",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
