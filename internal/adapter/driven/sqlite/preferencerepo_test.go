package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

const prKey = "https://api.github.com/repos/octo/widgets/pulls/12"

func TestPreferenceRepo_GetMissing(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))

	pref, err := repo.Get(context.Background(), prKey)

	require.NoError(t, err)
	assert.Nil(t, pref)
}

func TestPreferenceRepo_SaveAndGet(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	want := model.PullRequestPreference{
		Focus:          []model.Focus{model.FocusBugRisk, model.FocusSecurity},
		Strictness:     model.StrictnessMedium,
		PreferredModel: model.ModelDeepSeek,
	}
	require.NoError(t, repo.Save(ctx, prKey, want))

	got, err := repo.Get(ctx, prKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestPreferenceRepo_SaveBothModels(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, prKey, model.PullRequestPreference{
		Focus:      []model.Focus{model.FocusSecurity},
		Strictness: model.StrictnessHigh,
	}))

	got, err := repo.Get(ctx, prKey)
	require.NoError(t, err)
	assert.Equal(t, model.ModelBoth, got.PreferredModel)
}

func TestPreferenceRepo_SaveReplacesButKeepsOnboarded(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	first, err := repo.MarkOnboarded(ctx, prKey)
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, repo.Save(ctx, prKey, model.PullRequestPreference{
		Focus:          []model.Focus{model.FocusSecurity, model.FocusPerformance},
		Strictness:     model.StrictnessHigh,
		PreferredModel: model.ModelGPT4o,
	}))
	require.NoError(t, repo.Save(ctx, prKey, model.PullRequestPreference{
		Focus:      []model.Focus{model.FocusDocumentation},
		Strictness: model.StrictnessLow,
	}))

	got, err := repo.Get(ctx, prKey)
	require.NoError(t, err)
	assert.Equal(t, model.PullRequestPreference{
		Focus:      []model.Focus{model.FocusDocumentation},
		Strictness: model.StrictnessLow,
		Onboarded:  true,
	}, *got)
}

func TestPreferenceRepo_OnboardedOnlyRecordIsUnconfigured(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.MarkOnboarded(ctx, prKey)
	require.NoError(t, err)

	got, err := repo.Get(ctx, prKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Onboarded)
	assert.False(t, got.Configured())
	assert.Empty(t, got.Focus)
}

func TestPreferenceRepo_MarkOnboardedFlipsOnce(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	first, err := repo.MarkOnboarded(ctx, prKey)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.MarkOnboarded(ctx, prKey)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestPreferenceRepo_MarkOnboardedConcurrent(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := repo.MarkOnboarded(context.Background(), prKey)
			if err == nil && first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, firsts.Load())
}

func TestPreferenceRepo_Delete(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, prKey, model.PullRequestPreference{
		Focus:      []model.Focus{model.FocusSecurity},
		Strictness: model.StrictnessHigh,
	}))
	require.NoError(t, repo.Delete(ctx, prKey))

	got, err := repo.Get(ctx, prKey)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, repo.Delete(ctx, prKey), "deleting a missing record is a no-op")
}

func TestNewDB_FileAndMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	require.NoError(t, RunMigrations(db.Writer), "second run is a no-op")
	assert.Equal(t, path, db.Path())

	repo := NewPreferenceRepo(db)
	first, err := repo.MarkOnboarded(ctx, prKey)
	require.NoError(t, err)
	assert.True(t, first)
}
