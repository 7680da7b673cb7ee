package workflow

import (
	"context"
	"path/filepath"
	"strings"

	"partscope/internal/imagestore"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/services"
)

const defaultItemName = "Item"

// IntakeImage is one uploaded image.
type IntakeImage struct {
	Data     []byte
	Name     string
	Filename string
}

// Intake stores every image and creates one awaiting_review record per image,
// in input order. All payloads are validated before anything is written, and
// records are created in one transaction; if that fails the stored images are
// removed again. It returns the full refreshed inventory.
func (e *Engine) Intake(ctx context.Context, images []IntakeImage) (items []*inventory.Item, err error) {
	ctx = services.WithOperation(ctx, "intake")
	defer func() { e.metrics.RecordOperation("intake", err) }()

	if len(images) == 0 {
		return nil, services.Validationf("at least one image is required")
	}
	for i, img := range images {
		if _, err := imagestore.Decodable(img.Data); err != nil {
			return nil, services.Validationf("image %d: %s", i+1, services.Message(err))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	refs := make([]imagestore.Ref, 0, len(images))
	records := make([]inventory.NewItem, 0, len(images))
	for _, img := range images {
		ref, err := e.images.Save(ctx, img.Data)
		if err != nil {
			e.discardImages(ctx, refs)
			return nil, err
		}
		refs = append(refs, ref)
		records = append(records, inventory.NewItem{
			Name:      intakeName(img),
			ImagePath: ref.Path,
			Status:    inventory.StatusAwaitingReview,
		})
	}

	created, err := e.store.CreateMany(ctx, records)
	if err != nil {
		e.discardImages(ctx, refs)
		return nil, err
	}
	e.metrics.RecordIngested(len(created))
	e.log(ctx).Info("intake stored items", logging.Int("count", len(created)))
	return e.refresh(ctx)
}

func (e *Engine) discardImages(ctx context.Context, refs []imagestore.Ref) {
	for _, ref := range refs {
		if err := e.images.Remove(ref.Path); err != nil {
			e.log(ctx).Warn("failed to remove image after aborted intake",
				logging.String("image_path", ref.Path),
				logging.Error(err),
			)
		}
	}
}

func intakeName(img IntakeImage) string {
	if name := strings.TrimSpace(img.Name); name != "" {
		return name
	}
	if file := strings.TrimSpace(img.Filename); file != "" {
		base := filepath.Base(strings.ReplaceAll(file, `\`, "/"))
		if base != "." && base != "/" {
			return base
		}
	}
	return defaultItemName
}
