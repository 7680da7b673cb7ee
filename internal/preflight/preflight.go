package preflight

import (
	"context"
	"strings"

	"partscope/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the free space below which image intake is considered at risk.
const minFreeBytes = 256 << 20

// RunAll executes all applicable preflight checks for the given config.
// Service checks are only run for the configured backends.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Images directory", cfg.Paths.ImagesDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Images free space", cfg.Paths.ImagesDir, minFreeBytes),
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Classifier.Backend)) {
	case "tflite":
		results = append(results, CheckModelFile("Classifier model", cfg.Classifier.ModelPath))
	default:
		results = append(results, CheckEndpoint(ctx, "Classifier endpoint", cfg.Classifier.Endpoint))
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Insights.Backend), "llm") {
		results = append(results, CheckLLM(ctx, "Insight LLM", cfg.GetLLM()))
	}
	return results
}

// Failed returns only the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
