package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/services"
	"partscope/internal/services/llm"
)

const llmSystemPrompt = `You triage manufactured parts after automated visual inspection.
Given one inventory item as JSON, reply with a single JSON object:
{"recommended_status": one of "awaiting_review","in_review","needs_attention","cleared",
 "priority": one of "low","medium","elevated","high","critical",
 "owner_hint": team that should act (for example "Quality", "Maintenance", "Reliability"),
 "summary": one sentence assessment,
 "suggested_note": one sentence instruction to record on the item}
defect_score is the model probability that the part is defective (null if unclassified).
Respond with JSON only.`

// Completer is the subset of the LLM client the generator needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLM asks a chat model for the recommendation.
type LLM struct {
	client Completer
	logger *slog.Logger
}

// NewLLM returns a generator backed by client.
func NewLLM(client Completer, logger *slog.Logger) *LLM {
	return &LLM{client: client, logger: logging.NewComponentLogger(logger, "insight")}
}

type llmItemPrompt struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Owner       string   `json:"owner"`
	Notes       string   `json:"notes"`
	DefectScore *float64 `json:"defect_score"`
	Label       *int     `json:"label"`
}

type llmReply struct {
	RecommendedStatus string `json:"recommended_status"`
	Priority          string `json:"priority"`
	OwnerHint         string `json:"owner_hint"`
	Summary           string `json:"summary"`
	SuggestedNote     string `json:"suggested_note"`
}

// Generate prompts the model and validates its reply. Any failure is wrapped
// with services.ErrInsightService.
func (g *LLM) Generate(ctx context.Context, item inventory.Item) (Insight, error) {
	prompt := llmItemPrompt{
		ID:     item.ID,
		Name:   item.Name,
		Status: string(item.Status),
		Owner:  item.Owner,
		Notes:  item.Notes,
	}
	if c := item.Classification; c != nil {
		score, label := c.Score, c.Label
		prompt.DefectScore = &score
		prompt.Label = &label
	}
	encoded, err := json.Marshal(prompt)
	if err != nil {
		return Insight{}, wrapInsight("encode prompt", err)
	}

	content, err := g.client.CompleteJSON(ctx, llmSystemPrompt, string(encoded))
	if err != nil {
		return Insight{}, wrapInsight("complete", err)
	}
	var reply llmReply
	if err := llm.DecodeJSON(content, &reply); err != nil {
		return Insight{}, wrapInsight("decode reply", err)
	}

	status, ok := inventory.ParseStatus(reply.RecommendedStatus)
	if !ok {
		return Insight{}, wrapInsight("validate reply", fmt.Errorf("unknown recommended_status %q", reply.RecommendedStatus))
	}
	priority, ok := ParsePriority(reply.Priority)
	if !ok {
		return Insight{}, wrapInsight("validate reply", fmt.Errorf("unknown priority %q", reply.Priority))
	}

	fallback := heuristicInsight(item)
	out := Insight{
		ItemID:            item.ID,
		Name:              item.Name,
		CurrentStatus:     item.Status,
		RecommendedStatus: status,
		Priority:          priority,
		OwnerHint:         firstNonEmpty(reply.OwnerHint, fallback.OwnerHint),
		Summary:           firstNonEmpty(reply.Summary, fallback.Summary),
		SuggestedNote:     firstNonEmpty(reply.SuggestedNote, fallback.SuggestedNote),
		Confidence:        fallback.Confidence,
	}
	g.logger.Debug("llm insight generated",
		logging.ItemID(item.ID),
		logging.String("priority", string(out.Priority)),
		logging.String("recommended_status", string(out.RecommendedStatus)),
	)
	return out, nil
}

func wrapInsight(operation string, err error) error {
	return services.Wrap(services.ErrInsightService, "insight", operation, "", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
