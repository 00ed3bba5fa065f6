package repositories_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApplications(t *testing.T) *repositories.ApplicationRepository {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return repositories.NewApplicationRepository(s)
}

func TestCreateApplication(t *testing.T) {
	ctx := context.Background()
	repo := newApplications(t)

	created, err := repo.Create(ctx, models.BeneficiaryApplication{
		Name:           "Abhay Madan",
		IdentityNumber: "2955 3446 1658",
		Phone:          "9717766947",
		Address:        "Village Rampur",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "295534461658", created.IdentityNumber)
	assert.Equal(t, models.ApplicationPendingVerification, created.Status)
	assert.False(t, created.SubmittedAt.IsZero())
}

func TestCreateRejectsInvalidIdentity(t *testing.T) {
	ctx := context.Background()
	repo := newApplications(t)

	_, err := repo.Create(ctx, models.BeneficiaryApplication{
		Name:           "Bad Number",
		IdentityNumber: "095534461658",
	})
	assert.Error(t, err)
}

func TestCreateRejectsDuplicateIdentity(t *testing.T) {
	ctx := context.Background()
	repo := newApplications(t)

	app := models.BeneficiaryApplication{Name: "Abhay", IdentityNumber: "295534461658"}
	_, err := repo.Create(ctx, app)
	require.NoError(t, err)

	// Same number with different formatting is still a duplicate.
	app.IdentityNumber = "2955-3446-1658"
	_, err = repo.Create(ctx, app)
	assert.ErrorIs(t, err, repositories.ErrDuplicateIdentity)
}

func TestCreateSurvivesDedupeIndexWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.Open(dir)
	require.NoError(t, err)
	repo := repositories.NewApplicationRepository(s)

	// First submission warms the index and writes its file.
	_, err = repo.Create(ctx, models.BeneficiaryApplication{
		Name:           "Abhay",
		IdentityNumber: "295534461658",
	})
	require.NoError(t, err)

	// Block the index file so its next write fails while the
	// applications collection stays writable.
	indexPath := filepath.Join(dir, models.CollectionIdentityIndex+".json")
	require.NoError(t, os.Remove(indexPath))
	require.NoError(t, os.Mkdir(indexPath, 0o755))

	created, err := repo.Create(ctx, models.BeneficiaryApplication{
		Name:           "Meera",
		IdentityNumber: "384729105736",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// The application itself is durable; only the dedupe index entry
	// was dropped.
	apps, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := newApplications(t)

	created, err := repo.Create(ctx, models.BeneficiaryApplication{
		Name:           "Abhay",
		IdentityNumber: "295534461658",
	})
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, created.ID, models.ApplicationApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, updated.Status)

	_, err = repo.UpdateStatus(ctx, "missing", models.ApplicationRejected)
	assert.ErrorIs(t, err, repositories.ErrApplicationNotFound)

	_, err = repo.UpdateStatus(ctx, created.ID, models.ApplicationStatus("BOGUS"))
	assert.Error(t, err)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestStatsStreak(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	repo := repositories.NewStatsRepository(s)

	day1 := mustDate(t, "2026-08-26")
	day2 := mustDate(t, "2026-08-27")
	day4 := mustDate(t, "2026-08-29")

	stats, err := repo.RecordActivity(ctx, day1)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Points)
	assert.Equal(t, 1, stats.Streak)

	// Same day: points accrue, streak unchanged.
	stats, err = repo.RecordActivity(ctx, day1)
	require.NoError(t, err)
	assert.Equal(t, 100, stats.Points)
	assert.Equal(t, 1, stats.Streak)

	// Next day extends the streak.
	stats, err = repo.RecordActivity(ctx, day2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Streak)

	// A gap resets it.
	stats, err = repo.RecordActivity(ctx, day4)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Streak)
}
