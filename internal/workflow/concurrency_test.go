package workflow_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"partscope/internal/inventory"
	"partscope/internal/testsupport"
	"partscope/internal/workflow"
)

func TestClassifyAllCommitsEachItemBeforeTheNext(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithStatusUpdates(false))
	ctx := context.Background()
	items := f.upload(t, 0.9, 0.1, 0.2)
	entered, release := f.cls.holdOn(payload(t, 1))
	defer release()

	type outcome struct {
		items []*inventory.Item
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := f.engine.ClassifyAll(ctx, workflow.ClassifyOptions{})
		done <- outcome{out, err}
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("classifier never reached the second item")
	}

	mid, err := f.engine.Items(ctx, inventory.Filter{})
	require.NoError(t, err)
	seen := byID(mid)
	assert.True(t, seen[items[0].ID].Classified(), "first item should be visible as soon as it is scored")
	assert.False(t, seen[items[1].ID].Classified())
	assert.False(t, seen[items[2].ID].Classified())

	// Writers are not blocked while the classifier runs.
	patched, err := f.engine.PatchItem(ctx, items[2].ID, inventory.Patch{Owner: testsupport.Ptr("Line 3")})
	require.NoError(t, err)
	assert.Equal(t, "Line 3", patched.Owner)

	release()
	var res outcome
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ClassifyAll did not finish after release")
	}
	require.NoError(t, res.err)
	final := byID(res.items)
	for _, item := range items {
		assert.True(t, final[item.ID].Classified(), "item %d", item.ID)
	}
	assert.Equal(t, "Line 3", final[items[2].ID].Owner, "classification must not overwrite a concurrent patch")
}

func TestConcurrentPatchAndBatchUpdateStayConsistent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	items := f.upload(t, 0.3, 0.6)
	ids := []int64{items[0].ID, items[1].ID}

	const rounds = 12
	owners := make([]string, rounds)
	notes := make([]string, rounds)
	statuses := []string{"in_review", "needs_attention", "cleared"}

	var g errgroup.Group
	for i := range rounds {
		owners[i] = fmt.Sprintf("owner-%d", i)
		notes[i] = fmt.Sprintf("batch %d", i)
		g.Go(func() error {
			_, err := f.engine.PatchItem(ctx, ids[0], inventory.Patch{
				Owner:  &owners[i],
				Status: &statuses[i%len(statuses)],
			})
			return err
		})
		g.Go(func() error {
			_, err := f.engine.BatchUpdate(ctx, ids, inventory.BatchPatch{
				Status:      &statuses[(i+1)%len(statuses)],
				Notes:       &notes[i],
				AppendNotes: true,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	final, err := f.engine.Items(ctx, inventory.Filter{})
	require.NoError(t, err)
	for _, item := range byID(final) {
		lines := strings.Split(item.Notes, "\n")
		assert.ElementsMatch(t, notes, lines, "every appended note survives exactly once on item %d", item.ID)
		assert.Contains(t, statuses, string(item.Status))
	}
	assert.True(t, slices.Contains(owners, byID(final)[ids[0]].Owner), "owner must be one of the written values")
	assert.Empty(t, byID(final)[ids[1]].Owner, "patches to the first item must not leak into the second")
}
