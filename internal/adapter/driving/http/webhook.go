package httphandler

import (
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

// webhookPayload covers the fields of issue_comment and pull_request
// deliveries that the orchestrator needs.
type webhookPayload struct {
	Action      string           `json:"action"`
	Comment     *gh.IssueComment `json:"comment"`
	Issue       *gh.Issue        `json:"issue"`
	PullRequest *gh.PullRequest  `json:"pull_request"`
	Repository  *gh.Repository   `json:"repository"`
}

// toEvent maps the payload shape onto a transport-neutral event. Comment
// payloads win over pull_request ones, mirroring how deliveries are typed.
func (p webhookPayload) toEvent() model.Event {
	ev := model.Event{Action: p.Action}

	switch {
	case p.Comment != nil:
		ev.HasComment = true
		ev.CommentBody = p.Comment.GetBody()

		links := p.Issue.GetPullRequestLinks()
		if links == nil || links.GetURL() == "" {
			return ev
		}
		ev.OnPR = true
		ev.PR = model.PRRef{
			Key:         links.GetURL(),
			Number:      p.Issue.GetNumber(),
			CommentsURL: p.Issue.GetCommentsURL(),
		}
		ev.PR.Owner, ev.PR.Repo = ownerAndRepo(links.GetHTMLURL(), p.Repository)

	case p.PullRequest != nil:
		pr := p.PullRequest
		ev.HasPullRequest = true
		ev.PR = model.PRRef{
			Key:         pr.GetURL(),
			Number:      pr.GetNumber(),
			CommentsURL: pr.GetCommentsURL(),
		}
		ev.PR.Owner, ev.PR.Repo = ownerAndRepo(pr.GetHTMLURL(), p.Repository, pr.GetBase().GetRepo())
	}

	return ev
}

// ownerAndRepo resolves the repository coordinates from the first repository
// object that has them, falling back to the path of htmlURL.
func ownerAndRepo(htmlURL string, repos ...*gh.Repository) (string, string) {
	for _, r := range repos {
		if r == nil {
			continue
		}
		if owner, name := r.GetOwner().GetLogin(), r.GetName(); owner != "" && name != "" {
			return owner, name
		}
		if owner, name, err := splitRepo(r.GetFullName()); err == nil {
			return owner, name
		}
	}

	u, err := url.Parse(htmlURL)
	if err != nil {
		return "", ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", ""
	}
	owner, name, err := splitRepo(segments[0] + "/" + segments[1])
	if err != nil {
		return "", ""
	}
	return owner, name
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
