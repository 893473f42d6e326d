// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

// PreferenceStore defines the driven port for per-pull-request review
// configuration, keyed by the pull request's API URL.
//
// Get returns nil, nil when no record exists.
// Save replaces focus, strictness and model in full, creating the record if
// needed, and leaves the onboarded flag as it was.
// MarkOnboarded atomically flips onboarded from false to true, creating the
// record if needed; first is true only for the call that flipped it.
// Delete removes the record; deleting a missing record is not an error.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (*model.PullRequestPreference, error)
	Save(ctx context.Context, key string, pref model.PullRequestPreference) error
	MarkOnboarded(ctx context.Context, key string) (first bool, err error)
	Delete(ctx context.Context, key string) error
}
