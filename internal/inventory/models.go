package inventory

import (
	"math"
	"strings"
	"time"

	"partscope/internal/services"
)

// Status represents the triage state of an inventory item.
type Status string

const (
	StatusAwaitingReview Status = "awaiting_review"
	StatusInReview       Status = "in_review"
	StatusNeedsAttention Status = "needs_attention"
	StatusCleared        Status = "cleared"
)

var allStatuses = []Status{
	StatusAwaitingReview,
	StatusInReview,
	StatusNeedsAttention,
	StatusCleared,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// DefectThreshold is the score at or above which an item is labelled defective.
const DefectThreshold = 0.5

// Classification is a defect probability paired with its derived label.
type Classification struct {
	Score float64
	Label int
}

// NewClassification derives the label from score. Scores outside [0,1] or NaN
// are rejected.
func NewClassification(score float64) (Classification, error) {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return Classification{}, services.Validationf("score %v is outside [0,1]", score)
	}
	label := 0
	if score >= DefectThreshold {
		label = 1
	}
	return Classification{Score: score, Label: label}, nil
}

// Defective reports whether the label marks the item as defective.
func (c Classification) Defective() bool {
	return c.Label == 1
}

// Item is a single inspected part.
type Item struct {
	ID             int64
	Name           string
	ImagePath      string
	Status         Status
	Classification *Classification
	Owner          string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Classified reports whether the item carries a score and label.
func (i Item) Classified() bool {
	return i.Classification != nil
}

// NewItem describes a record to create.
type NewItem struct {
	Name      string
	ImagePath string
	Status    Status
	Owner     string
	Notes     string
}

// Filter narrows List results. A zero Filter returns everything.
type Filter struct {
	Statuses []Status
}

// PredictionRecord is one row of the prediction log.
type PredictionRecord struct {
	ID        int64
	ItemID    *int64
	Score     float64
	Label     int
	Source    string
	CreatedAt time.Time
}

const (
	SourceClassify = "classify"
	SourcePredict  = "predict"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)
