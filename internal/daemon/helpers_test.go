package daemon_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"partscope/internal/api"
	"partscope/internal/classifier"
	"partscope/internal/config"
	"partscope/internal/daemon"
	"partscope/internal/imagestore"
	"partscope/internal/insight"
	"partscope/internal/logging"
	"partscope/internal/metrics"
	"partscope/internal/services"
	"partscope/internal/testsupport"
	"partscope/internal/workflow"
)

// sizeClassifier scores images by payload length so fixtures are deterministic.
type sizeClassifier struct {
	mu   sync.Mutex
	down bool
}

func (c *sizeClassifier) Classify(_ context.Context, data []byte) (classifier.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return classifier.Result{}, services.Wrap(services.ErrClassifier, "classifier", "classify", "model server unavailable", nil)
	}
	return classifier.Result{Score: float64(len(data)%100) / 100}, nil
}

func (c *sizeClassifier) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

type harness struct {
	cfg    *config.Config
	daemon *daemon.Daemon
	cls    *sizeClassifier
	server *httptest.Server
	client *api.Client
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStatusUpdates(false))
	for _, fn := range mutate {
		fn(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	images, err := imagestore.New(cfg.Paths.ImagesDir)
	if err != nil {
		t.Fatalf("imagestore.New: %v", err)
	}
	m, err := metrics.New()
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	cls := &sizeClassifier{}
	engine := workflow.NewEngine(store, images, cls, insight.Heuristic{}, logging.NewNop(),
		workflow.OptionsFromConfig(cfg), workflow.WithMetrics(m.Inventory))
	d, err := daemon.New(cfg, daemon.Deps{Store: store, Engine: engine, Classifier: cls, Metrics: m}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("api.NewClient: %v", err)
	}
	return &harness{cfg: cfg, daemon: d, cls: cls, server: srv, client: client}
}

func (h *harness) upload(t *testing.T, n int) []api.Item {
	t.Helper()
	files := make([]api.UploadFile, n)
	for i := range files {
		files[i] = api.UploadFile{Data: testsupport.PNG(t, 4+i, 4+i, uint8(i*30)), Filename: "part.png"}
	}
	items, err := h.client.Upload(context.Background(), files)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return items
}
