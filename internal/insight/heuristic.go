package insight

import (
	"context"

	"partscope/internal/inventory"
)

// Score thresholds, highest first.
const (
	criticalThreshold   = 0.85
	highThreshold       = 0.65
	borderlineThreshold = 0.45
	maintenanceLean     = 0.6
)

const (
	ownerQuality     = "Quality"
	ownerMaintenance = "Maintenance"
	ownerReliability = "Reliability"
)

// Heuristic maps the classification score onto fixed triage bands.
type Heuristic struct{}

// Generate never fails; an unclassified item yields an "awaiting review"
// recommendation.
func (Heuristic) Generate(_ context.Context, item inventory.Item) (Insight, error) {
	return heuristicInsight(item), nil
}

func heuristicInsight(item inventory.Item) Insight {
	out := Insight{
		ItemID:        item.ID,
		Name:          item.Name,
		CurrentStatus: item.Status,
		Confidence:    roundedConfidence(item.Classification),
	}

	if item.Classification == nil {
		out.RecommendedStatus = inventory.StatusAwaitingReview
		out.Priority = PriorityLow
		out.OwnerHint = ownerOr(item.Owner, ownerQuality)
		out.Summary = "No prediction data available; prompt the lab to classify this image."
		out.SuggestedNote = "Item has not been classified yet. Schedule inspection."
		return out
	}

	score := item.Classification.Score
	switch {
	case score >= criticalThreshold:
		out.RecommendedStatus = inventory.StatusNeedsAttention
		out.Priority = PriorityCritical
		out.OwnerHint = ownerReliability
		out.Summary = "Model flags this component as highly likely defective. Quarantine the lot immediately."
		out.SuggestedNote = "Hold shipment, escalate to reliability engineering, and initiate tear-down analysis."
	case score >= highThreshold:
		out.RecommendedStatus = inventory.StatusNeedsAttention
		out.Priority = PriorityHigh
		out.OwnerHint = ownerMaintenance
		out.Summary = "Elevated defect probability; prioritize rework and secondary inspection."
		out.SuggestedNote = "Route to maintenance for rework and request ultrasonic verification."
	case score >= borderlineThreshold:
		out.RecommendedStatus = inventory.StatusInReview
		out.Priority = PriorityElevated
		lean := ownerQuality
		if score >= maintenanceLean {
			lean = ownerMaintenance
		}
		out.OwnerHint = ownerOr(item.Owner, lean)
		out.Summary = "Borderline reading; keep under observation and sample additional units."
		out.SuggestedNote = "Add to the monitoring queue and capture more samples from the same batch."
	default:
		out.RecommendedStatus = inventory.StatusCleared
		out.Priority = PriorityLow
		out.OwnerHint = ownerOr(item.Owner, ownerQuality)
		out.Summary = "Low likelihood of defect; release after visual confirmation."
		out.SuggestedNote = "Log QA spot check and release to assembly if no manual defects are found."
	}
	return out
}

func ownerOr(owner, fallback string) string {
	if owner != "" {
		return owner
	}
	return fallback
}
