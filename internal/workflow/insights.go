package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"partscope/internal/insight"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/services"
)

// InsightReport is the result of GenerateInsights. Missing lists ids that are
// unknown or whose generation failed, in request order.
type InsightReport struct {
	Insights []insight.Insight
	Missing  []int64
}

// GenerateInsights produces one recommendation per known id without changing
// any state. Generation runs concurrently with a per-item timeout; a failed or
// timed out item is reported as missing instead of failing the request.
func (e *Engine) GenerateInsights(ctx context.Context, ids []int64) (InsightReport, error) {
	ctx = services.WithOperation(ctx, "insights")
	ordered := dedupe(ids)
	if len(ordered) == 0 {
		return InsightReport{Insights: []insight.Insight{}, Missing: []int64{}}, nil
	}

	found, err := e.store.GetMany(ctx, ordered)
	if err != nil {
		return InsightReport{}, err
	}
	byID := make(map[int64]*inventory.Item, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	results := make([]*insight.Insight, len(ordered))
	var g errgroup.Group
	g.SetLimit(e.opts.InsightConcurrency)
	for i, id := range ordered {
		item, ok := byID[id]
		if !ok {
			continue
		}
		g.Go(func() error {
			out, err := e.generateOne(ctx, *item)
			if err != nil {
				e.metrics.RecordInsight("missing")
				e.log(services.WithItemID(ctx, id)).Warn("insight generation failed", logging.Args(logging.ErrorAttrs(err)...)...)
				return nil
			}
			e.metrics.RecordInsight("generated")
			results[i] = &out
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return InsightReport{}, err
	}

	report := InsightReport{Insights: make([]insight.Insight, 0, len(found)), Missing: []int64{}}
	for i, id := range ordered {
		if results[i] == nil {
			report.Missing = append(report.Missing, id)
			continue
		}
		report.Insights = append(report.Insights, *results[i])
	}
	return report, nil
}

func (e *Engine) generateOne(ctx context.Context, item inventory.Item) (insight.Insight, error) {
	itemCtx := ctx
	if e.opts.InsightTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, e.opts.InsightTimeout)
		defer cancel()
	}
	type outcome struct {
		insight insight.Insight
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := e.generator.Generate(itemCtx, item)
		done <- outcome{out, err}
	}()
	select {
	case res := <-done:
		return res.insight, res.err
	case <-itemCtx.Done():
		return insight.Insight{}, services.Wrap(services.ErrTimeout, "workflow", "insights", "insight generation timed out", itemCtx.Err())
	}
}

// ApplyInsight turns a recommendation into a patch: the recommended status and
// owner hint are set and the suggested note is appended.
func (e *Engine) ApplyInsight(ctx context.Context, in insight.Insight) (*inventory.Item, error) {
	status := string(in.RecommendedStatus)
	patch := inventory.Patch{
		Status:      &status,
		Notes:       &in.SuggestedNote,
		AppendNotes: true,
	}
	if in.OwnerHint != "" {
		patch.Owner = &in.OwnerHint
	}
	return e.PatchItem(services.WithOperation(ctx, "apply_insight"), in.ItemID, patch)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
