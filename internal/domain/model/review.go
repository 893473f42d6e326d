package model

import "fmt"

// ReviewRequest is the resolved input for one reviewer invocation.
type ReviewRequest struct {
	Diff       string
	Focus      []Focus
	Strictness Strictness
	Provider   Provider
}

// ReviewErrorKind classifies why a provider produced no review.
type ReviewErrorKind string

const (
	ReviewErrAuth        ReviewErrorKind = "auth"
	ReviewErrRateLimited ReviewErrorKind = "rate_limited"
	ReviewErrUnavailable ReviewErrorKind = "unavailable"
	ReviewErrEmpty       ReviewErrorKind = "empty"
	ReviewErrCanceled    ReviewErrorKind = "canceled"
	ReviewErrUnknown     ReviewErrorKind = "unknown"
	ReviewErrNoReviewer  ReviewErrorKind = "no_reviewer"
)

// ReviewError is a failed provider invocation.
type ReviewError struct {
	Kind ReviewErrorKind
	Err  error
}

func (e *ReviewError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ReviewError) Unwrap() error { return e.Err }

// ReviewResult is either review text or a ReviewError for one provider.
type ReviewResult struct {
	Provider Provider
	Text     string
	Err      *ReviewError
}

// OK reports whether the provider produced review text.
func (r ReviewResult) OK() bool { return r.Err == nil }

// DisplayText returns what gets posted for this result.
func (r ReviewResult) DisplayText() string {
	if r.Err == nil {
		return r.Text
	}
	return fmt.Sprintf("%s review failed (%s).", r.Provider, r.Err.Kind.describe())
}

func (k ReviewErrorKind) describe() string {
	switch k {
	case ReviewErrAuth:
		return "authentication error"
	case ReviewErrRateLimited:
		return "rate limited"
	case ReviewErrUnavailable:
		return "service unavailable"
	case ReviewErrEmpty:
		return "empty response"
	case ReviewErrCanceled:
		return "timed out"
	case ReviewErrNoReviewer:
		return "provider not configured"
	default:
		return "unexpected error"
	}
}
