// Package github implements the GitHubGateway port using the go-github library.
package github

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
	"github.com/ericfisherdev/dualreview/internal/domain/port/driven"
)

// DefaultBaseURL is the public GitHub REST API root.
const DefaultBaseURL = "https://api.github.com/"

const diffMediaType = "application/vnd.github.v3.diff"

// Compile-time interface satisfaction check.
var _ driven.GitHubGateway = (*Client)(nil)

// Client implements the driven.GitHubGateway port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// An empty baseURL selects the public API.
func NewClient(token, baseURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	return NewClientWithHTTPClient(rateLimitClient, baseURL, token)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// Tests use it to point the client at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL %q: must be absolute", baseURL)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchDiff retrieves the unified diff of a pull request. The owner/repo/number
// triple is preferred; the API URL in pr.Key is the fallback.
func (c *Client) FetchDiff(ctx context.Context, pr model.PRRef) (string, error) {
	if pr.Owner != "" && pr.Repo != "" && pr.Number > 0 {
		diff, resp, err := c.gh.PullRequests.GetRaw(ctx, pr.Owner, pr.Repo, pr.Number, gh.RawOptions{Type: gh.Diff})
		if err != nil {
			return "", fmt.Errorf("fetching diff for %s/%s#%d: %w", pr.Owner, pr.Repo, pr.Number, err)
		}
		logRateLimit(resp, pr.Owner+"/"+pr.Repo+"/diff")
		return diff, nil
	}

	if err := c.checkEndpoint(pr.Key); err != nil {
		return "", err
	}

	req, err := c.gh.NewRequest(http.MethodGet, pr.Key, nil)
	if err != nil {
		return "", fmt.Errorf("building diff request: %w", err)
	}
	req.Header.Set("Accept", diffMediaType)

	var buf bytes.Buffer
	resp, err := c.gh.Do(ctx, req, &buf)
	if err != nil {
		return "", fmt.Errorf("fetching diff from %s: %w", pr.Key, err)
	}
	logRateLimit(resp, pr.Key)

	return buf.String(), nil
}

// PostComment creates an issue comment at commentsURL whose body starts with
// the label as a bold heading.
func (c *Client) PostComment(ctx context.Context, commentsURL, label, body string) error {
	if err := c.checkEndpoint(commentsURL); err != nil {
		return err
	}

	req, err := c.gh.NewRequest(http.MethodPost, commentsURL, &gh.IssueComment{
		Body: gh.Ptr(formatComment(label, body)),
	})
	if err != nil {
		return fmt.Errorf("building comment request: %w", err)
	}

	resp, err := c.gh.Do(ctx, req, nil)
	if err != nil {
		return fmt.Errorf("posting comment to %s: %w", commentsURL, err)
	}
	logRateLimit(resp, commentsURL)

	return nil
}

// checkEndpoint rejects payload-supplied URLs that point anywhere but the
// configured API, so the token is never sent to a foreign host.
func (c *Client) checkEndpoint(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", driven.ErrInvalidCommentsURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", driven.ErrInvalidCommentsURL, err)
	}

	base := c.gh.BaseURL
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) ||
		!strings.HasPrefix(u.Path, base.Path) {
		return fmt.Errorf("%w: %s is outside %s", driven.ErrInvalidCommentsURL, raw, base)
	}

	return nil
}

func formatComment(label, body string) string {
	if label == "" {
		return body
	}
	return "**[" + label + "]**\n\n" + body
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
