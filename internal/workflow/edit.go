package workflow

import (
	"context"

	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/services"
)

// PatchItem applies a partial update to one item and returns it.
func (e *Engine) PatchItem(ctx context.Context, id int64, patch inventory.Patch) (item *inventory.Item, err error) {
	ctx = services.WithItemID(services.WithOperation(ctx, "patch"), id)
	defer func() { e.metrics.RecordOperation("patch", err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	item, err = e.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	e.log(ctx).Info("item updated", logging.String("status", string(item.Status)))
	return item, nil
}

// BatchUpdate applies the same field set to every listed item. Unknown ids are
// ignored; an empty field set or id list is a validation error.
func (e *Engine) BatchUpdate(ctx context.Context, ids []int64, batch inventory.BatchPatch) (items []*inventory.Item, err error) {
	ctx = services.WithOperation(ctx, "batch_update")
	defer func() { e.metrics.RecordOperation("batch_update", err) }()

	if batch.Empty() {
		return nil, services.Validationf("no fields to update")
	}
	if len(ids) == 0 {
		return nil, services.Validationf("item_ids cannot be empty")
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	updated, err := e.store.UpdateMany(ctx, ids, batch)
	if err != nil {
		return nil, err
	}
	e.log(ctx).Info("batch update applied",
		logging.Int("requested", len(ids)),
		logging.Int("updated", updated),
	)
	return e.refresh(ctx)
}

// BatchDelete removes the listed items and their images. Unknown ids are
// ignored, so repeating a delete is harmless.
func (e *Engine) BatchDelete(ctx context.Context, ids []int64) (items []*inventory.Item, err error) {
	ctx = services.WithOperation(ctx, "batch_delete")
	defer func() { e.metrics.RecordOperation("batch_delete", err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	targets, err := e.store.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(targets) > 0 {
		existing := make([]int64, len(targets))
		for i, item := range targets {
			existing[i] = item.ID
		}
		deleted, err := e.store.DeleteMany(ctx, existing)
		if err != nil {
			return nil, err
		}
		e.metrics.RecordDeleted(deleted)
		for _, item := range targets {
			if err := e.images.Remove(item.ImagePath); err != nil {
				e.log(services.WithItemID(ctx, item.ID)).Warn("failed to remove image for deleted item",
					logging.String("image_path", item.ImagePath),
					logging.Error(err),
				)
			}
		}
		e.log(ctx).Info("items deleted", logging.Int64("deleted", deleted))
	}
	return e.refresh(ctx)
}
