package preflight

import (
	"inkcap/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config. Binary
// availability is the deps package's job; callers that want the full picture
// combine both.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	// Fonts ship read-only in most deployments.
	if cfg.Paths.FontsDir != "" {
		results = append(results, CheckDirectoryReadable("Fonts directory", cfg.Paths.FontsDir))
	}
	return results
}
