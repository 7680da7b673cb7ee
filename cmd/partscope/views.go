package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"partscope/internal/api"
)

var titleCaser = cases.Title(language.English)

// statusLabel renders needs_attention as "Needs Attention".
func statusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "-"
	}
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', 3, 64)
}

func formatLabel(label *int) string {
	if label == nil {
		return "-"
	}
	if *label == 1 {
		return "defect"
	}
	return "ok"
}

func formatCreated(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return api.CreatedTime(seconds).Local().Format("2006-01-02 15:04")
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// listOptions narrows and orders items on the client.
type listOptions struct {
	owner  string
	search string
	sortBy string
	desc   bool
}

func (o listOptions) validate() error {
	switch o.sortBy {
	case "", "created", "name", "score", "status":
		return nil
	}
	return fmt.Errorf("unknown sort key %q (use created, name, score or status)", o.sortBy)
}

func applyListOptions(items []api.Item, opts listOptions) []api.Item {
	owner := strings.ToLower(strings.TrimSpace(opts.owner))
	search := strings.ToLower(strings.TrimSpace(opts.search))

	out := make([]api.Item, 0, len(items))
	for _, item := range items {
		if owner != "" && strings.ToLower(item.Owner) != owner {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		out = append(out, item)
	}

	compare := compareItems(opts.sortBy)
	slices.SortStableFunc(out, func(a, b api.Item) int {
		if opts.desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

func matchesSearch(item api.Item, needle string) bool {
	for _, field := range []string{item.Name, item.Owner, item.Notes, item.Status, strconv.FormatInt(item.ID, 10)} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func compareItems(key string) func(a, b api.Item) int {
	switch key {
	case "name":
		return func(a, b api.Item) int {
			return cmp.Or(strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
		}
	case "score":
		// Unscored items sort after scored ones.
		return func(a, b api.Item) int {
			switch {
			case a.Score == nil && b.Score == nil:
				return cmp.Compare(a.ID, b.ID)
			case a.Score == nil:
				return 1
			case b.Score == nil:
				return -1
			}
			return cmp.Or(cmp.Compare(*a.Score, *b.Score), cmp.Compare(a.ID, b.ID))
		}
	case "status":
		return func(a, b api.Item) int {
			return cmp.Or(cmp.Compare(statusRank(a.Status), statusRank(b.Status)), cmp.Compare(a.ID, b.ID))
		}
	default:
		return func(a, b api.Item) int {
			return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
		}
	}
}

func statusRank(status string) int {
	switch status {
	case "awaiting_review":
		return 0
	case "in_review":
		return 1
	case "needs_attention":
		return 2
	case "cleared":
		return 3
	default:
		return 4
	}
}

func renderItems(items []api.Item) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			statusLabel(item.Status),
			formatScore(item.Score),
			formatLabel(item.Label),
			orDash(item.Owner),
			formatCreated(item.CreatedAt),
			orDash(item.Notes),
		})
	}
	return renderTable([]column{
		{header: "ID", right: true},
		{header: "Name", maxWidth: 32},
		{header: "Status"},
		{header: "Score", right: true},
		{header: "Label"},
		{header: "Owner"},
		{header: "Created"},
		{header: "Notes", maxWidth: 40},
	}, rows)
}

func renderInsights(insights []api.Insight) string {
	rows := make([][]string, 0, len(insights))
	for _, in := range insights {
		rows = append(rows, []string{
			strconv.FormatInt(in.ItemID, 10),
			in.Name,
			statusLabel(in.CurrentStatus) + " -> " + statusLabel(in.RecommendedStatus),
			titleCaser.String(in.Priority),
			orDash(in.OwnerHint),
			formatScore(in.Confidence),
			in.Summary,
		})
	}
	return renderTable([]column{
		{header: "ID", right: true},
		{header: "Name", maxWidth: 24},
		{header: "Recommendation"},
		{header: "Priority"},
		{header: "Owner"},
		{header: "Confidence", right: true},
		{header: "Summary", maxWidth: 48},
	}, rows)
}

func renderPredictions(records []api.Prediction) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		item := "-"
		if rec.ItemID != nil {
			item = strconv.FormatInt(*rec.ItemID, 10)
		}
		score, label := rec.Score, rec.Label
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			item,
			rec.Source,
			formatScore(&score),
			formatLabel(&label),
			api.CreatedTime(rec.CreatedAt).Local().Format(time.DateTime),
		})
	}
	return renderTable([]column{
		{header: "ID", right: true},
		{header: "Item", right: true},
		{header: "Source"},
		{header: "Score", right: true},
		{header: "Label"},
		{header: "When"},
	}, rows)
}

// statusCounts summarizes items per status in lifecycle order.
func statusCounts(items []api.Item) string {
	counts := map[string]int{}
	for _, item := range items {
		counts[item.Status]++
	}
	parts := make([]string, 0, 4)
	for _, status := range []string{"awaiting_review", "in_review", "needs_attention", "cleared"} {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", statusLabel(status), n))
		}
	}
	if len(parts) == 0 {
		return "no items"
	}
	return strings.Join(parts, ", ")
}
