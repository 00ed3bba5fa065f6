package repositories_test

import (
	"context"
	"testing"
	"time"

	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKhata(t *testing.T) *repositories.KhataRepository {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return repositories.NewKhataRepository(s)
}

func TestKhataRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newKhata(t)

	_, err := repo.Append(ctx, decimal.NewFromInt(120), "vegetables")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	latest, err := repo.Append(ctx, decimal.NewFromInt(450), "handloom sale")
	require.NoError(t, err)

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first for display.
	assert.Equal(t, latest.ID, entries[0].ID)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, "handloom sale", entries[0].Description)
}

func TestKhataDefaultDescription(t *testing.T) {
	ctx := context.Background()
	repo := newKhata(t)

	entry, err := repo.Append(ctx, decimal.NewFromInt(50), "")
	require.NoError(t, err)
	assert.Equal(t, "Daily Sale", entry.Description)
}

func TestKhataRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	repo := newKhata(t)

	_, err := repo.Append(ctx, decimal.Zero, "x")
	assert.Error(t, err)
	_, err = repo.Append(ctx, decimal.NewFromInt(-5), "x")
	assert.Error(t, err)

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestKhataClear(t *testing.T) {
	ctx := context.Background()
	repo := newKhata(t)

	_, err := repo.Append(ctx, decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.NoError(t, repo.Clear(ctx))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
