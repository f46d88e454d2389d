package preflight

import (
	"path/filepath"
	"strings"

	"hitcut/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunRender executes the checks the render stage needs.
func RunRender(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	results = append(results, CheckFileReadable("Project file", cfg.Project.Path))
	if strings.TrimSpace(cfg.Project.SoundFont) != "" {
		results = append(results, CheckFileReadable("SoundFont", cfg.Project.SoundFont))
	}
	outputDir := cfg.Render.OutputDir
	if strings.TrimSpace(outputDir) == "" && cfg.Project.Path != "" {
		outputDir = filepath.Dir(cfg.Project.Path)
	}
	results = append(results, CheckDirectoryAccess("Output directory", outputDir))
	if cfg.Render.MetadataFile != "" {
		results = append(results, CheckDirectoryAccess("Metadata directory", filepath.Dir(cfg.Render.MetadataFile)))
	}
	return results
}

// RunTrim executes the checks the trim stage needs.
func RunTrim(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	results = append(results, CheckFileReadable("Metadata log", cfg.Trim.MetadataFile))
	dir := cfg.Trim.Dir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(cfg.Trim.MetadataFile)
	}
	results = append(results, CheckDirectoryAccess("Rendered files", dir))
	if cfg.Trim.Ledger {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
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
