package workflow

import (
	"context"
	"errors"
	"time"

	"partscope/internal/imagestore"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/services"
)

// ClassifyOptions controls which records ClassifyAll visits.
type ClassifyOptions struct {
	// OnlyUnclassified skips records that already carry a score.
	OnlyUnclassified bool
}

// ClassifyAll scores every record (or only unclassified ones) and writes each
// result as soon as it is available. Per-item failures are logged and leave
// the record untouched. It returns the full refreshed inventory.
func (e *Engine) ClassifyAll(ctx context.Context, opts ClassifyOptions) (items []*inventory.Item, err error) {
	ctx = services.WithOperation(ctx, "classify")
	defer func() { e.metrics.RecordOperation("classify", err) }()

	snapshot, err := e.store.List(ctx, inventory.Filter{})
	if err != nil {
		return nil, err
	}

	var classified, failed int
	for _, item := range snapshot {
		if err := ctx.Err(); err != nil {
			e.log(ctx).Warn("classification interrupted",
				logging.Int("classified", classified),
				logging.Error(err),
			)
			return nil, err
		}
		if opts.OnlyUnclassified && item.Classified() {
			continue
		}
		if err := e.classifyItem(ctx, item); err != nil {
			if ctx.Err() != nil {
				continue
			}
			failed++
			itemCtx := services.WithItemID(ctx, item.ID)
			e.log(itemCtx).Warn("classification skipped", logging.Args(logging.ErrorAttrs(err)...)...)
			continue
		}
		classified++
	}

	e.log(ctx).Info("classification finished",
		logging.Int("classified", classified),
		logging.Int("failed", failed),
		logging.Int("total", len(snapshot)),
	)
	return e.refresh(ctx)
}

func (e *Engine) classifyItem(ctx context.Context, item *inventory.Item) error {
	data, err := e.images.Open(item.ImagePath)
	if err != nil {
		return err
	}
	result, err := e.score(ctx, data)
	if err != nil {
		return err
	}

	var status *inventory.Status
	if e.opts.UpdateStatus {
		next := inventory.StatusCleared
		if result.Defective() {
			next = inventory.StatusNeedsAttention
		}
		status = &next
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	updated, err := e.store.RecordClassification(ctx, item.ID, result, status)
	if err != nil {
		return err
	}
	e.log(services.WithItemID(ctx, item.ID)).Debug("item classified",
		logging.Score(updated.Classification.Score),
		logging.Int("label", updated.Classification.Label),
		logging.String("status", string(updated.Status)),
	)
	return nil
}

// score runs the classifier with the configured timeout and derives the label.
func (e *Engine) score(ctx context.Context, data []byte) (inventory.Classification, error) {
	if e.classifier == nil {
		return inventory.Classification{}, services.Wrap(services.ErrConfiguration, "workflow", "classify", "no classifier configured", nil)
	}
	callCtx := ctx
	if e.opts.ClassifierTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.ClassifierTimeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := e.classifier.Classify(callCtx, data)
	if err != nil {
		e.metrics.RecordClassification("error", time.Since(started))
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return inventory.Classification{}, services.Wrap(services.ErrTimeout, "workflow", "classify", "classifier timed out", err)
		}
		return inventory.Classification{}, err
	}
	result, err := inventory.NewClassification(raw.Score)
	if err != nil {
		e.metrics.RecordClassification("error", time.Since(started))
		return inventory.Classification{}, services.Wrap(services.ErrClassifier, "workflow", "classify", "classifier returned an invalid score", err)
	}
	outcome := "ok"
	if result.Defective() {
		outcome = "defective"
	}
	e.metrics.RecordClassification(outcome, time.Since(started))
	return result, nil
}

// Predict classifies an image without creating a record and logs the result.
func (e *Engine) Predict(ctx context.Context, data []byte) (inventory.Classification, error) {
	ctx = services.WithOperation(ctx, "predict")
	if _, err := imagestore.Decodable(data); err != nil {
		return inventory.Classification{}, err
	}
	result, err := e.score(ctx, data)
	if err != nil {
		return inventory.Classification{}, err
	}
	if err := e.store.LogPrediction(ctx, result, inventory.SourcePredict); err != nil {
		e.log(ctx).Warn("failed to log prediction", logging.Error(err))
	}
	return result, nil
}

// PredictionHistory returns recent prediction log rows, newest first.
func (e *Engine) PredictionHistory(ctx context.Context, limit int) ([]inventory.PredictionRecord, error) {
	return e.store.PredictionHistory(ctx, limit)
}
