package repositories_test

import (
	"context"
	"sync"
	"testing"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T) *repositories.QueueRepository {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return repositories.NewQueueRepository(s)
}

func TestEnqueueGeneratesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	repo := newQueue(t)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		item, err := repo.Enqueue(ctx, models.QueueKindKhataEntry, map[string]int{"n": i})
		require.NoError(t, err)
		require.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}

	n, err := repo.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
}

func TestMarkSyncedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newQueue(t)

	item, err := repo.Enqueue(ctx, models.QueueKindApplication, map[string]string{"name": "Abhay"})
	require.NoError(t, err)
	_, err = repo.Enqueue(ctx, models.QueueKindApplication, map[string]string{"name": "Meera"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkSynced(ctx, item.ID))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Second call is a no-op, not an error.
	require.NoError(t, repo.MarkSynced(ctx, item.ID))

	again, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, pending, again)
}

func TestMarkSyncedUnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := newQueue(t)

	_, err := repo.Enqueue(ctx, models.QueueKindDelivery, map[string]string{"asset": "AST-1"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkSynced(ctx, "no-such-id"))

	n, err := repo.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentEnqueueSurvivesMarkSynced(t *testing.T) {
	ctx := context.Background()
	repo := newQueue(t)

	const rounds = 50
	seeded := make([]string, 0, rounds)
	for i := 0; i < rounds; i++ {
		item, err := repo.Enqueue(ctx, models.QueueKindKhataEntry, i)
		require.NoError(t, err)
		seeded = append(seeded, item.ID)
	}

	// A sync pass marking items synced while the operator keeps filing
	// new records: both sides race on the same collection.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range seeded {
			assert.NoError(t, repo.MarkSynced(ctx, id))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := repo.Enqueue(ctx, models.QueueKindDelivery, i)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2*rounds, "enqueues racing a sync pass must not be lost")

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, rounds)
}

func TestPendingCountIsDerived(t *testing.T) {
	ctx := context.Background()
	repo := newQueue(t)

	a, err := repo.Enqueue(ctx, models.QueueKindKhataEntry, 1)
	require.NoError(t, err)
	b, err := repo.Enqueue(ctx, models.QueueKindKhataEntry, 2)
	require.NoError(t, err)

	require.NoError(t, repo.MarkSynced(ctx, a.ID))
	require.NoError(t, repo.MarkSynced(ctx, b.ID))

	n, err := repo.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, item := range all {
		assert.Equal(t, models.SyncSynced, item.SyncStatus)
	}
}
