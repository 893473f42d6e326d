package model

// EventKind is the category an inbound webhook event falls into.
type EventKind string

const (
	EventConfigComment EventKind = "config_comment"
	EventOpened        EventKind = "opened"
	EventReopened      EventKind = "reopened"
	EventSynchronized  EventKind = "synchronized"
	EventClosed        EventKind = "closed"
	EventIrrelevant    EventKind = "irrelevant"
)

// PRRef identifies a pull request and where to talk to it.
type PRRef struct {
	Key         string // API-level pull request URL; the preference store key.
	Owner       string
	Repo        string
	Number      int
	CommentsURL string // Issue comments endpoint for posting.
}

// Event is the transport-neutral view of a webhook payload.
type Event struct {
	Action string

	// Set for comment payloads.
	HasComment  bool
	CommentBody string
	OnPR        bool // The commented issue is a pull request.

	// Set for pull_request payloads.
	HasPullRequest bool

	PR PRRef
}
