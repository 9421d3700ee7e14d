package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "conciliador.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHolidaysRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.LoadHolidays(ctx, 2025)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.SaveHolidays(ctx, 2025, []string{"2025-03-24", "2025-01-01", "2025-01-01"}))
	require.NoError(t, repo.SaveHolidays(ctx, 2026, []string{"2026-01-01"}))

	got, err = repo.LoadHolidays(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-03-24"}, got)

	// Saving again replaces the year.
	require.NoError(t, repo.SaveHolidays(ctx, 2025, []string{"2025-05-01"}))
	got, err = repo.LoadHolidays(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-05-01"}, got)
}

func TestRunLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateRun(ctx, Run{ID: "r1", SpreadsheetID: "sid", CreatedBy: "ana", StartedAt: started}))

	run, err := repo.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, run.OK)
	assert.Nil(t, run.FinishedAt)
	assert.True(t, run.StartedAt.Equal(started))

	require.NoError(t, repo.FinishRun(ctx, "r1", true, `{"pagos_cargados":3}`, ""))
	run, err = repo.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, run.OK)
	assert.NotNil(t, run.FinishedAt)
	assert.JSONEq(t, `{"pagos_cargados":3}`, run.ResultJSON)

	require.NoError(t, repo.CreateRun(ctx, Run{ID: "r2", SpreadsheetID: "sid", StartedAt: started.Add(time.Hour)}))
	runs, err := repo.ListRecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)

	_, err = repo.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.ErrorIs(t, repo.FinishRun(ctx, "missing", false, "{}", "x"), ErrRunNotFound)
}

func TestCreateRun_KeepsPendingRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	queued := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateRun(ctx, Run{ID: "r1", SpreadsheetID: "sid", CreatedBy: "ana", StartedAt: queued}))
	require.NoError(t, repo.CreateRun(ctx, Run{ID: "r1", SpreadsheetID: "sid", CreatedBy: "worker", StartedAt: queued.Add(time.Minute)}))

	run, err := repo.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "ana", run.CreatedBy)
	assert.True(t, run.StartedAt.Equal(queued))

	require.NoError(t, repo.FinishRun(ctx, "r1", true, "{}", ""))
	runs, err := repo.ListRecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].OK)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v1)
	assert.Equal(t, v1, v2)
}
