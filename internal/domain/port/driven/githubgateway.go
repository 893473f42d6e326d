package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

// ErrInvalidCommentsURL indicates a comments endpoint outside the configured API host.
var ErrInvalidCommentsURL = errors.New("invalid comments url")

// GitHubGateway defines the driven port for the two transport calls the
// orchestrator makes against the source-control host.
type GitHubGateway interface {
	// FetchDiff returns the unified diff of a pull request.
	FetchDiff(ctx context.Context, pr model.PRRef) (string, error)

	// PostComment posts body to the issue comments endpoint, prefixed with label.
	PostComment(ctx context.Context, commentsURL, label, body string) error
}
