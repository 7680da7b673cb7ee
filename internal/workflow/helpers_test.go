package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partscope/internal/classifier"
	"partscope/internal/config"
	"partscope/internal/imagestore"
	"partscope/internal/insight"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/testsupport"
	"partscope/internal/workflow"
)

// scriptedClassifier returns a fixed score per image payload. A payload passed
// to holdOn blocks inside Classify until released.
type scriptedClassifier struct {
	mu      sync.Mutex
	scores  map[string]float64
	failing map[string]error
	gates   map[string]*gate
	calls   int
}

type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newScriptedClassifier() *scriptedClassifier {
	return &scriptedClassifier{scores: map[string]float64{}, failing: map[string]error{}, gates: map[string]*gate{}}
}

func (c *scriptedClassifier) set(data []byte, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[string(data)] = score
}

func (c *scriptedClassifier) fail(data []byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[string(data)] = err
}

// holdOn makes Classify block on data. entered closes once the call is in
// flight; release lets it finish.
func (c *scriptedClassifier) holdOn(data []byte) (entered <-chan struct{}, release func()) {
	g := &gate{entered: make(chan struct{}), release: make(chan struct{})}
	c.mu.Lock()
	c.gates[string(data)] = g
	c.mu.Unlock()
	var once sync.Once
	return g.entered, func() { once.Do(func() { close(g.release) }) }
}

func (c *scriptedClassifier) Classify(ctx context.Context, data []byte) (classifier.Result, error) {
	c.mu.Lock()
	c.calls++
	g := c.gates[string(data)]
	failure, failing := c.failing[string(data)]
	score, scripted := c.scores[string(data)]
	c.mu.Unlock()

	if g != nil {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return classifier.Result{}, ctx.Err()
		}
	}
	if failing {
		return classifier.Result{}, failure
	}
	if !scripted {
		return classifier.Result{}, errors.New("no score scripted")
	}
	return classifier.Result{Score: score}, nil
}

// blockingGenerator waits for ctx for the listed ids and defers to the
// heuristic otherwise.
type blockingGenerator struct {
	block map[int64]bool
}

func (g blockingGenerator) Generate(ctx context.Context, item inventory.Item) (insight.Insight, error) {
	if g.block[item.ID] {
		<-ctx.Done()
		return insight.Insight{}, ctx.Err()
	}
	return insight.Heuristic{}.Generate(ctx, item)
}

type fixture struct {
	cfg    *config.Config
	store  *inventory.Store
	images *imagestore.Store
	cls    *scriptedClassifier
	engine *workflow.Engine
}

func newFixture(t *testing.T, gen insight.Generator, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	images, err := imagestore.New(cfg.Paths.ImagesDir)
	require.NoError(t, err)
	cls := newScriptedClassifier()
	options := workflow.OptionsFromConfig(cfg)
	options.InsightTimeout = 200 * time.Millisecond
	engine := workflow.NewEngine(store, images, cls, gen, logging.NewNop(), options)
	return &fixture{cfg: cfg, store: store, images: images, cls: cls, engine: engine}
}

// upload stores one image per shade and scripts the classifier score for it.
func (f *fixture) upload(t *testing.T, scores ...float64) []*inventory.Item {
	t.Helper()
	batch := make([]workflow.IntakeImage, len(scores))
	for i, score := range scores {
		data := payload(t, i)
		f.cls.set(data, score)
		batch[i] = workflow.IntakeImage{Data: data, Filename: "part.png"}
	}
	items, err := f.engine.Intake(context.Background(), batch)
	require.NoError(t, err)
	return items
}

func byID(items []*inventory.Item) map[int64]*inventory.Item {
	out := make(map[int64]*inventory.Item, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out
}

// payload is the image upload stores at position i.
func payload(t *testing.T, i int) []byte {
	t.Helper()
	return testsupport.PNG(t, 8, 8, uint8(10+i*20))
}
