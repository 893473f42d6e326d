package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

// Sentinel errors returned by Reviewer implementations. Callers classify
// failures with errors.Is.
var (
	// ErrReviewerAuth indicates a missing or rejected API key.
	ErrReviewerAuth = errors.New("reviewer authentication failed")

	// ErrReviewerRateLimited indicates the provider kept answering 429.
	ErrReviewerRateLimited = errors.New("reviewer rate limited")

	// ErrReviewerUnavailable indicates a transport failure or 5xx response.
	ErrReviewerUnavailable = errors.New("reviewer unavailable")

	// ErrEmptyReview indicates a successful call that returned no text.
	ErrEmptyReview = errors.New("reviewer returned empty review")
)

// Reviewer produces review text for a diff from one LLM provider.
type Reviewer interface {
	Provider() model.Provider
	Review(ctx context.Context, req model.ReviewRequest) (string, error)
}
