// Package insight derives triage recommendations for inventory items.
//
// A Generator never mutates state; the workflow engine decides whether a
// recommendation is applied. The heuristic generator reproduces the fixed
// score thresholds, the llm generator asks a chat model for the same shape of
// answer, and Cached memoizes either one while the item is unchanged.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"partscope/internal/config"
	"partscope/internal/inventory"
	"partscope/internal/services"
	"partscope/internal/services/llm"
)

// Priority ranks how urgently an item needs attention.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityElevated Priority = "elevated"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority normalizes value and reports whether it is a known priority.
func ParsePriority(value string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(value)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityElevated, PriorityHigh, PriorityCritical:
		return p, true
	}
	return "", false
}

// Insight is a recommendation for a single item.
type Insight struct {
	ItemID            int64
	Name              string
	CurrentStatus     inventory.Status
	RecommendedStatus inventory.Status
	Priority          Priority
	OwnerHint         string
	SuggestedNote     string
	Confidence        *float64
	Summary           string
}

// Generator produces an insight for one item.
type Generator interface {
	Generate(ctx context.Context, item inventory.Item) (Insight, error)
}

const (
	BackendHeuristic = "heuristic"
	BackendLLM       = "llm"
)

// New builds the generator selected by cfg.Insights.Backend, wrapped in a
// cache when a TTL is configured.
func New(cfg *config.Config, logger *slog.Logger) (Generator, error) {
	var gen Generator
	switch strings.ToLower(strings.TrimSpace(cfg.Insights.Backend)) {
	case "", BackendHeuristic:
		gen = Heuristic{}
	case BackendLLM:
		llmCfg := cfg.GetLLM()
		client := llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		}, llm.WithRequestsPerMinute(cfg.Insights.RequestsPerMinute))
		gen = NewLLM(client, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "insight", "init",
			fmt.Sprintf("unknown backend %q", cfg.Insights.Backend), nil)
	}
	if ttl := cfg.InsightCacheTTL(); ttl > 0 {
		gen = NewCached(gen, ttl)
	}
	return gen, nil
}

func roundedConfidence(c *inventory.Classification) *float64 {
	if c == nil {
		return nil
	}
	v := math.Round(c.Score*1000) / 1000
	return &v
}
