package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partscope/internal/config"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/services"
)

type countingGenerator struct {
	calls int
	err   error
}

func (g *countingGenerator) Generate(ctx context.Context, item inventory.Item) (Insight, error) {
	g.calls++
	if g.err != nil {
		return Insight{}, g.err
	}
	return Heuristic{}.Generate(ctx, item)
}

func TestCachedReusesUntilItemChanges(t *testing.T) {
	inner := &countingGenerator{}
	cached := NewCached(inner, time.Minute)
	item := classified(0.7, "")

	_, err := cached.Generate(context.Background(), item)
	require.NoError(t, err)
	_, err = cached.Generate(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	item.Notes = "reworked"
	_, err = cached.Generate(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	inner := &countingGenerator{err: errors.New("boom")}
	cached := NewCached(inner, time.Minute)
	item := classified(0.7, "")

	_, err := cached.Generate(context.Background(), item)
	require.Error(t, err)
	_, err = cached.Generate(context.Background(), item)
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Insights.CacheTTLSeconds = 0
	gen, err := New(&cfg, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Heuristic{}, gen)

	cfg.Insights.CacheTTLSeconds = 60
	gen, err = New(&cfg, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Cached{}, gen)

	cfg.Insights.Backend = "llm"
	cfg.LLM.APIKey = "k"
	gen, err = New(&cfg, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Cached{}, gen)

	cfg.Insights.Backend = "oracle"
	_, err = New(&cfg, logging.NewNop())
	assert.ErrorIs(t, err, services.ErrConfiguration)
}
