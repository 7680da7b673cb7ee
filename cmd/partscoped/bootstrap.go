package main

import (
	"fmt"
	"log/slog"

	"partscope/internal/classifier"
	"partscope/internal/config"
	"partscope/internal/daemon"
	"partscope/internal/imagestore"
	"partscope/internal/insight"
	"partscope/internal/inventory"
	"partscope/internal/metrics"
	"partscope/internal/workflow"
)

// buildDeps opens storage and constructs the configured backends. On error
// everything opened so far is closed again.
func buildDeps(cfg *config.Config, logger *slog.Logger) (daemon.Deps, error) {
	store, err := inventory.Open(cfg)
	if err != nil {
		return daemon.Deps{}, fmt.Errorf("open inventory store: %w", err)
	}
	fail := func(err error) (daemon.Deps, error) {
		_ = store.Close()
		return daemon.Deps{}, err
	}

	images, err := imagestore.New(cfg.Paths.ImagesDir)
	if err != nil {
		return fail(fmt.Errorf("open image store: %w", err))
	}
	cls, err := classifier.New(cfg, logger)
	if err != nil {
		return fail(fmt.Errorf("create classifier: %w", err))
	}
	gen, err := insight.New(cfg, logger)
	if err != nil {
		if closer, ok := cls.(classifier.Closer); ok {
			_ = closer.Close()
		}
		return fail(fmt.Errorf("create insight generator: %w", err))
	}

	var opts []workflow.EngineOption
	var m *metrics.Metrics
	if cfg.Server.MetricsEnabled {
		m, err = metrics.New()
		if err != nil {
			return fail(fmt.Errorf("create metrics: %w", err))
		}
		opts = append(opts, workflow.WithMetrics(m.Inventory))
	}

	engine := workflow.NewEngine(store, images, cls, gen, logger, workflow.OptionsFromConfig(cfg), opts...)
	return daemon.Deps{Store: store, Engine: engine, Classifier: cls, Metrics: m}, nil
}
