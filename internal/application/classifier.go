package application

import "github.com/ericfisherdev/dualreview/internal/domain/model"

// EventClassifier maps inbound events to the categories the orchestrator acts on.
// It is pure: no store access, no I/O.
type EventClassifier struct {
	parser *ConfigParser
}

// NewEventClassifier creates a classifier that recognizes the parser's command.
func NewEventClassifier(parser *ConfigParser) *EventClassifier {
	return &EventClassifier{parser: parser}
}

// Classify returns the category of ev. Events without a pull request key are
// always irrelevant, since there is nothing to key state on.
func (c *EventClassifier) Classify(ev model.Event) model.EventKind {
	if ev.PR.Key == "" {
		return model.EventIrrelevant
	}

	if ev.HasComment {
		if ev.Action == "created" && ev.OnPR && c.parser.IsCommand(ev.CommentBody) {
			return model.EventConfigComment
		}
		return model.EventIrrelevant
	}

	if !ev.HasPullRequest {
		return model.EventIrrelevant
	}

	switch ev.Action {
	case "opened":
		return model.EventOpened
	case "reopened":
		return model.EventReopened
	case "synchronize":
		return model.EventSynchronized
	case "closed":
		return model.EventClosed
	default:
		return model.EventIrrelevant
	}
}
