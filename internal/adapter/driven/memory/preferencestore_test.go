package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

const key = "https://api.github.com/repos/octo/widgets/pulls/1"

func TestPreferenceStore_GetMissing(t *testing.T) {
	s := NewPreferenceStore()

	pref, err := s.Get(context.Background(), key)

	require.NoError(t, err)
	assert.Nil(t, pref)
}

func TestPreferenceStore_SaveAndGet(t *testing.T) {
	s := NewPreferenceStore()
	ctx := context.Background()

	want := model.PullRequestPreference{
		Focus:          []model.Focus{model.FocusPerformance, model.FocusSecurity},
		Strictness:     model.StrictnessHigh,
		PreferredModel: model.ModelGPT4o,
	}
	require.NoError(t, s.Save(ctx, key, want))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	// Returned records are copies.
	got.Focus[0] = model.FocusDocumentation
	again, _ := s.Get(ctx, key)
	assert.Equal(t, model.FocusPerformance, again.Focus[0])
}

func TestPreferenceStore_SaveKeepsOnboarded(t *testing.T) {
	s := NewPreferenceStore()
	ctx := context.Background()

	first, err := s.MarkOnboarded(ctx, key)
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, s.Save(ctx, key, model.PullRequestPreference{
		Focus:      []model.Focus{model.FocusSecurity},
		Strictness: model.StrictnessLow,
	}))

	got, _ := s.Get(ctx, key)
	assert.True(t, got.Onboarded)
	assert.True(t, got.Configured())
}

func TestPreferenceStore_SaveReplacesInFull(t *testing.T) {
	s := NewPreferenceStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, key, model.PullRequestPreference{
		Focus:          []model.Focus{model.FocusSecurity, model.FocusReadability},
		Strictness:     model.StrictnessHigh,
		PreferredModel: model.ModelDeepSeek,
	}))
	require.NoError(t, s.Save(ctx, key, model.PullRequestPreference{
		Focus:      []model.Focus{model.FocusDocumentation},
		Strictness: model.StrictnessLow,
	}))

	got, _ := s.Get(ctx, key)
	assert.Equal(t, []model.Focus{model.FocusDocumentation}, got.Focus)
	assert.Equal(t, model.ModelBoth, got.PreferredModel)
}

func TestPreferenceStore_MarkOnboardedExactlyOnce(t *testing.T) {
	s := NewPreferenceStore()

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := s.MarkOnboarded(context.Background(), key)
			if err == nil && first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, firsts.Load())
}

func TestPreferenceStore_Delete(t *testing.T) {
	s := NewPreferenceStore()
	ctx := context.Background()

	_, _ = s.MarkOnboarded(ctx, key)
	require.NoError(t, s.Delete(ctx, key))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, s.Len())

	// Deleting a missing record is fine.
	assert.NoError(t, s.Delete(ctx, key))
}

func TestPreferenceStore_KeysAreIndependent(t *testing.T) {
	s := NewPreferenceStore()
	ctx := context.Background()
	other := "https://api.github.com/repos/octo/widgets/pulls/2"

	_, _ = s.MarkOnboarded(ctx, key)
	first, _ := s.MarkOnboarded(ctx, other)
	assert.True(t, first)

	require.NoError(t, s.Delete(ctx, key))
	got, _ := s.Get(ctx, other)
	require.NotNil(t, got)
	assert.True(t, got.Onboarded)
}
