package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partscope/internal/inventory"
	"partscope/internal/services"
	"partscope/internal/testsupport"
	"partscope/internal/workflow"
)

func TestClassifyAllRecordsConsistentLabels(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithStatusUpdates(false))
	ctx := context.Background()
	f.upload(t, 0.2, 0.5, 0.93)

	items, err := f.engine.ClassifyAll(ctx, workflow.ClassifyOptions{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	wantLabels := []int{0, 1, 1}
	for i, item := range items {
		require.True(t, item.Classified(), "item %d should be classified", item.ID)
		assert.Equal(t, wantLabels[i], item.Classification.Label)
		assert.Equal(t, item.Classification.Score >= inventory.DefectThreshold, item.Classification.Defective())
		assert.Equal(t, inventory.StatusAwaitingReview, item.Status, "status untouched unless enabled")
	}

	history, err := f.engine.PredictionHistory(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	for _, rec := range history {
		assert.Equal(t, inventory.SourceClassify, rec.Source)
		assert.NotNil(t, rec.ItemID)
	}
}

func TestClassifyAllSkipsFailuresAndContinues(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	uploaded := f.upload(t, 0.1, 0.7, 0.3)

	broken, err := f.images.Open(uploaded[0].ImagePath)
	require.NoError(t, err)
	f.cls.fail(broken, services.Wrap(services.ErrClassifier, "classifier", "classify", "model unavailable", nil))
	require.NoError(t, f.images.Remove(uploaded[2].ImagePath))

	items, err := f.engine.ClassifyAll(ctx, workflow.ClassifyOptions{})
	require.NoError(t, err)

	got := byID(items)
	assert.False(t, got[uploaded[0].ID].Classified())
	require.True(t, got[uploaded[1].ID].Classified())
	assert.InDelta(t, 0.7, got[uploaded[1].ID].Classification.Score, 1e-9)
	assert.False(t, got[uploaded[2].ID].Classified())
}

func TestClassifyAllRejectsOutOfRangeScore(t *testing.T) {
	f := newFixture(t, nil)
	uploaded := f.upload(t, 1.7)

	items, err := f.engine.ClassifyAll(context.Background(), workflow.ClassifyOptions{})
	require.NoError(t, err)
	assert.False(t, byID(items)[uploaded[0].ID].Classified())
}

func TestClassifyAllUpdatesStatusWhenEnabled(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithStatusUpdates(true))
	uploaded := f.upload(t, 0.9, 0.05)

	items, err := f.engine.ClassifyAll(context.Background(), workflow.ClassifyOptions{})
	require.NoError(t, err)
	got := byID(items)
	assert.Equal(t, inventory.StatusNeedsAttention, got[uploaded[0].ID].Status)
	assert.Equal(t, inventory.StatusCleared, got[uploaded[1].ID].Status)
}

func TestClassifyAllOnlyUnclassified(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.upload(t, 0.4, 0.6)

	_, err := f.engine.ClassifyAll(ctx, workflow.ClassifyOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, f.cls.calls)

	f.upload(t, 0.8)
	_, err = f.engine.ClassifyAll(ctx, workflow.ClassifyOptions{OnlyUnclassified: true})
	require.NoError(t, err)
	assert.Equal(t, 3, f.cls.calls)
}

func TestClassifyAllStopsWhenCancelled(t *testing.T) {
	f := newFixture(t, nil)
	f.upload(t, 0.3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.ClassifyAll(ctx, workflow.ClassifyOptions{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, f.cls.calls)
}

func TestPredictLogsWithoutCreatingRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	data := testsupport.PNG(t, 6, 6, 200)
	f.cls.set(data, 0.66)

	result, err := f.engine.Predict(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Label)

	items, err := f.engine.Items(ctx, inventory.Filter{})
	require.NoError(t, err)
	assert.Empty(t, items)

	history, err := f.engine.PredictionHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, inventory.SourcePredict, history[0].Source)
	assert.Nil(t, history[0].ItemID)

	_, err = f.engine.Predict(ctx, []byte("garbage"))
	assert.ErrorIs(t, err, services.ErrValidation)
}
