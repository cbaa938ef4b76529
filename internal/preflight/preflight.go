package preflight

import (
	"path/filepath"
	"strings"

	"labeller/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if strings.TrimSpace(cfg.Paths.DatasetRoot) == "" {
		results = append(results, Result{Name: "Dataset root", Detail: "not configured (set paths.dataset_root or pass --root)"})
	} else {
		results = append(results, CheckReadableDirectory("Dataset root", cfg.Paths.DatasetRoot))
	}
	results = append(results, CheckDirectoryAccess("Output directory", filepath.Dir(cfg.Paths.OutputFile)))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
