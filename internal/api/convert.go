package api

import (
	"time"

	"partscope/internal/insight"
	"partscope/internal/inventory"
)

// FromItem converts an inventory record to its API representation.
func FromItem(item *inventory.Item) Item {
	if item == nil {
		return Item{}
	}
	dto := Item{
		ID:        item.ID,
		Name:      item.Name,
		Status:    string(item.Status),
		Owner:     item.Owner,
		CreatedAt: unixSeconds(item.CreatedAt),
		ImagePath: item.ImagePath,
		Notes:     item.Notes,
	}
	if c := item.Classification; c != nil {
		score, label := c.Score, c.Label
		dto.Score = &score
		dto.Label = &label
	}
	return dto
}

// FromItems converts records to DTOs. The result is never nil so it encodes
// as an empty JSON array.
func FromItems(items []*inventory.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromInsight converts a recommendation to its API representation.
func FromInsight(in insight.Insight) Insight {
	return Insight{
		ItemID:            in.ItemID,
		Name:              in.Name,
		CurrentStatus:     string(in.CurrentStatus),
		RecommendedStatus: string(in.RecommendedStatus),
		Priority:          string(in.Priority),
		OwnerHint:         in.OwnerHint,
		Confidence:        in.Confidence,
		Summary:           in.Summary,
		SuggestedNote:     in.SuggestedNote,
	}
}

// ToInsight converts a posted insight back to the internal model. Status
// strings are passed through unvalidated; the patch that applies them does
// the validation.
func ToInsight(dto Insight) insight.Insight {
	priority, _ := insight.ParsePriority(dto.Priority)
	return insight.Insight{
		ItemID:            dto.ItemID,
		Name:              dto.Name,
		CurrentStatus:     inventory.Status(dto.CurrentStatus),
		RecommendedStatus: inventory.Status(dto.RecommendedStatus),
		Priority:          priority,
		OwnerHint:         dto.OwnerHint,
		Confidence:        dto.Confidence,
		Summary:           dto.Summary,
		SuggestedNote:     dto.SuggestedNote,
	}
}

// FromPredictions converts prediction log rows.
func FromPredictions(records []inventory.PredictionRecord) []Prediction {
	out := make([]Prediction, 0, len(records))
	for _, rec := range records {
		out = append(out, Prediction{
			ID:        rec.ID,
			ItemID:    rec.ItemID,
			Score:     rec.Score,
			Label:     rec.Label,
			Source:    rec.Source,
			CreatedAt: unixSeconds(rec.CreatedAt),
		})
	}
	return out
}

// ToPatch maps a patch request onto the store's patch type.
func ToPatch(req PatchRequest) inventory.Patch {
	return inventory.Patch{
		Name:        req.Name,
		Status:      req.Status,
		Owner:       req.Owner,
		Notes:       req.Notes,
		AppendNotes: req.AppendNotes,
	}
}

// ToBatchPatch maps a batch update request onto the store's batch patch.
func ToBatchPatch(req BatchUpdateRequest) inventory.BatchPatch {
	return inventory.BatchPatch{
		Status:      req.Status,
		Owner:       req.Owner,
		Notes:       req.Notes,
		AppendNotes: req.AppendNotes,
	}
}

// CreatedTime converts a created_at value back to a time.
func CreatedTime(seconds float64) time.Time {
	whole := int64(seconds)
	nanos := int64((seconds - float64(whole)) * float64(time.Second))
	return time.Unix(whole, nanos)
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
