package preflight

import (
	"errors"
	"fmt"
	"strings"

	"slakhprep/internal/config"
)

// ErrFailed indicates at least one preflight check did not pass.
var ErrFailed = errors.New("preflight checks failed")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the preflight checks for processing the given splits.
// The output directory is created first so a fresh install passes.
func RunAll(cfg *config.Config, splits []string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryReadable("Dataset root", cfg.Dataset.Root))
	for _, split := range splits {
		results = append(results, CheckDirectoryReadable("Split "+split, cfg.SplitDir(split)))
	}

	if err := cfg.EnsureDirectories(); err != nil {
		results = append(results, Result{Name: "Output directory", Detail: err.Error()})
		return results
	}
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Output.Dir))
	results = append(results, CheckFreeSpace("Output free space", cfg.Output.Dir, cfg.Output.MinFreeMiB))

	return results
}

// Err returns nil when every result passed, otherwise an ErrFailed wrapping
// the failed check details.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFailed, strings.Join(failed, "; "))
}
