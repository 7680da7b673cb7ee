package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"partscope/internal/classifier"
	"partscope/internal/config"
	"partscope/internal/imagestore"
	"partscope/internal/insight"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/metrics"
)

// Store is the persistence the engine depends on.
type Store interface {
	CreateMany(ctx context.Context, items []inventory.NewItem) ([]*inventory.Item, error)
	List(ctx context.Context, filter inventory.Filter) ([]*inventory.Item, error)
	Get(ctx context.Context, id int64) (*inventory.Item, error)
	GetMany(ctx context.Context, ids []int64) ([]*inventory.Item, error)
	Update(ctx context.Context, id int64, patch inventory.Patch) (*inventory.Item, error)
	UpdateMany(ctx context.Context, ids []int64, batch inventory.BatchPatch) (int, error)
	RecordClassification(ctx context.Context, id int64, result inventory.Classification, status *inventory.Status) (*inventory.Item, error)
	LogPrediction(ctx context.Context, result inventory.Classification, source string) error
	PredictionHistory(ctx context.Context, limit int) ([]inventory.PredictionRecord, error)
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

// Images is the blob storage the engine depends on.
type Images interface {
	Save(ctx context.Context, data []byte) (imagestore.Ref, error)
	Open(path string) ([]byte, error)
	Remove(path string) error
}

// Options tunes engine behavior.
type Options struct {
	// UpdateStatus moves classified items to needs_attention or cleared.
	UpdateStatus       bool
	ClassifierTimeout  time.Duration
	InsightTimeout     time.Duration
	InsightConcurrency int
}

// OptionsFromConfig derives engine options from application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UpdateStatus:       cfg.Classifier.UpdateStatus,
		ClassifierTimeout:  cfg.ClassifierTimeout(),
		InsightTimeout:     cfg.InsightTimeout(),
		InsightConcurrency: cfg.Insights.Concurrency,
	}
}

// Engine implements the inventory operations.
type Engine struct {
	store      Store
	images     Images
	classifier classifier.Classifier
	generator  insight.Generator
	logger     *slog.Logger
	metrics    *metrics.InventoryMetrics
	opts       Options

	// mu is the single writer lock.
	mu sync.Mutex
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.InventoryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine wires an engine over the given collaborators.
func NewEngine(store Store, images Images, cls classifier.Classifier, gen insight.Generator, logger *slog.Logger, opts Options, extra ...EngineOption) *Engine {
	if opts.InsightConcurrency <= 0 {
		opts.InsightConcurrency = 1
	}
	if gen == nil {
		gen = insight.Heuristic{}
	}
	e := &Engine{
		store:      store,
		images:     images,
		classifier: cls,
		generator:  gen,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		opts:       opts,
	}
	for _, opt := range extra {
		opt(e)
	}
	return e
}

// Items lists the inventory, optionally narrowed by status.
func (e *Engine) Items(ctx context.Context, filter inventory.Filter) ([]*inventory.Item, error) {
	return e.store.List(ctx, filter)
}

// refresh returns the full list after a mutation and updates status gauges.
func (e *Engine) refresh(ctx context.Context) ([]*inventory.Item, error) {
	items, err := e.store.List(ctx, inventory.Filter{})
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		counts := make(map[string]int, 4)
		for _, status := range inventory.AllStatuses() {
			counts[string(status)] = 0
		}
		for _, item := range items {
			counts[string(item.Status)]++
		}
		e.metrics.SetStatusCounts(counts)
	}
	return items, nil
}

func (e *Engine) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, e.logger)
}
