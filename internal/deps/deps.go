// Package deps reports the availability of the external binaries the
// renderer shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"prompter/internal/config"
)

// Requirement defines an external binary the conversion pipeline can use.
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

// Renderer returns the requirements of the thumbnail renderer. Both are
// optional: when neither resolves, every slide falls back to the synthesized
// placeholder and conversions still succeed.
func Renderer(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "LibreOffice",
			Command:     cfg.Renderer.ConvertBinary,
			Description: "renders slide thumbnails and the intermediate PDF",
			Optional:    true,
		},
		{
			Name:        "pdftoppm",
			Command:     cfg.Renderer.RasterBinary,
			Description: "rasterizes PDF pages into per-slide thumbnails",
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
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
