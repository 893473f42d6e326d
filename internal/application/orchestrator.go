// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
	"github.com/ericfisherdev/dualreview/internal/domain/port/driven"
)

// Outcome is the neutral summary of how one event was handled.
type Outcome struct {
	Kind    model.EventKind
	Message string
	Reviews int // Provider invocations made.
}

// ReviewOrchestrator decides, per event, whether to onboard, apply a
// configuration, run reviews, or clear state. Events for the same pull request
// are processed one at a time; different pull requests run in parallel.
type ReviewOrchestrator struct {
	store      driven.PreferenceStore
	gateway    driven.GitHubGateway
	reviewers  map[model.Provider]driven.Reviewer
	parser     *ConfigParser
	classifier *EventClassifier
	botName    string
	locks      *keyedMutex
	logger     *slog.Logger
}

// NewReviewOrchestrator creates a ReviewOrchestrator. Reviewers are indexed
// by provider; a provider with no reviewer reports a failure when selected.
func NewReviewOrchestrator(
	store driven.PreferenceStore,
	gateway driven.GitHubGateway,
	reviewers []driven.Reviewer,
	botName string,
	logger *slog.Logger,
) *ReviewOrchestrator {
	byProvider := make(map[model.Provider]driven.Reviewer, len(reviewers))
	for _, r := range reviewers {
		byProvider[r.Provider()] = r
	}

	parser := NewConfigParser(botName)

	return &ReviewOrchestrator{
		store:      store,
		gateway:    gateway,
		reviewers:  byProvider,
		parser:     parser,
		classifier: NewEventClassifier(parser),
		botName:    botName,
		locks:      newKeyedMutex(),
		logger:     logger,
	}
}

// Handle classifies ev and performs the matching action sequence. A non-nil
// error means the preference store failed; transport and reviewer failures
// are logged or posted and never returned.
func (o *ReviewOrchestrator) Handle(ctx context.Context, ev model.Event) (Outcome, error) {
	kind := o.classifier.Classify(ev)
	if kind == model.EventIrrelevant {
		return Outcome{Kind: kind, Message: "Not a pull request or config event"}, nil
	}

	unlock := o.locks.Lock(ev.PR.Key)
	defer unlock()

	log := o.logger.With("pr", ev.PR.Key, "event", string(kind))
	log.Info("handling event")

	var (
		out Outcome
		err error
	)
	switch kind {
	case model.EventConfigComment:
		out, err = o.handleConfigComment(ctx, log, ev)
	case model.EventOpened, model.EventReopened:
		out, err = o.handleOpened(ctx, log, ev)
	case model.EventSynchronized:
		out, err = o.handleSynchronized(ctx, log, ev)
	case model.EventClosed:
		out, err = o.handleClosed(ctx, log, ev)
	}
	out.Kind = kind

	if err != nil {
		log.Error("event handling failed", "error", err)
		return out, err
	}
	log.Info("event handled", "message", out.Message, "reviews", out.Reviews)
	return out, nil
}

func (o *ReviewOrchestrator) handleConfigComment(ctx context.Context, log *slog.Logger, ev model.Event) (Outcome, error) {
	pref, err := o.parser.Parse(ev.CommentBody)
	if err != nil {
		var cfgErr *model.ConfigError
		if !errors.As(err, &cfgErr) {
			return Outcome{}, fmt.Errorf("parsing configuration: %w", err)
		}
		log.Info("configuration rejected", "problems", cfgErr.Kinds())
		o.post(ctx, log, ev.PR.CommentsURL, o.botName, configErrorMessage(cfgErr))
		return Outcome{Message: "Configuration rejected"}, nil
	}

	if err := o.store.Save(ctx, ev.PR.Key, pref); err != nil {
		return Outcome{Message: "Configuration could not be saved"}, fmt.Errorf("saving preference: %w", err)
	}
	o.post(ctx, log, ev.PR.CommentsURL, o.botName, configSavedMessage(pref))

	n, ran := o.runReviews(ctx, log, ev.PR, pref)
	if !ran {
		return Outcome{Message: "Configuration applied; unknown model, review skipped"}, nil
	}
	return Outcome{Message: "Configuration applied and review posted", Reviews: n}, nil
}

func (o *ReviewOrchestrator) handleOpened(ctx context.Context, log *slog.Logger, ev model.Event) (Outcome, error) {
	sent, err := o.onboard(ctx, log, ev.PR)
	if err != nil {
		return Outcome{}, err
	}
	if !sent {
		return Outcome{Message: "Already onboarded"}, nil
	}
	return Outcome{Message: "Onboarding sent"}, nil
}

func (o *ReviewOrchestrator) handleSynchronized(ctx context.Context, log *slog.Logger, ev model.Event) (Outcome, error) {
	pref, err := o.store.Get(ctx, ev.PR.Key)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading preference: %w", err)
	}

	if pref == nil {
		// First sight of this pull request: onboarding goes out before anything else.
		if _, err := o.onboard(ctx, log, ev.PR); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "No config found. Skipped review."}, nil
	}
	if !pref.Configured() {
		return Outcome{Message: "No config found. Skipped review."}, nil
	}

	n, ran := o.runReviews(ctx, log, ev.PR, *pref)
	if !ran {
		return Outcome{Message: "Unknown model; review skipped"}, nil
	}
	return Outcome{Message: "Synchronized: review posted", Reviews: n}, nil
}

func (o *ReviewOrchestrator) handleClosed(ctx context.Context, log *slog.Logger, ev model.Event) (Outcome, error) {
	if err := o.store.Delete(ctx, ev.PR.Key); err != nil {
		return Outcome{}, fmt.Errorf("deleting preference: %w", err)
	}
	log.Info("cleared preferences")
	return Outcome{Message: "Pull request closed: preferences cleared"}, nil
}

// onboard posts the onboarding message unless this pull request already got it.
func (o *ReviewOrchestrator) onboard(ctx context.Context, log *slog.Logger, pr model.PRRef) (bool, error) {
	first, err := o.store.MarkOnboarded(ctx, pr.Key)
	if err != nil {
		return false, fmt.Errorf("marking onboarded: %w", err)
	}
	if !first {
		return false, nil
	}
	o.post(ctx, log, pr.CommentsURL, o.botName, onboardingMessage(o.botName))
	return true, nil
}

// runReviews fetches the diff and runs every provider the preference selects,
// concurrently, then posts one comment per provider in posting order. ran is
// false when the model selector matches no provider; a warning is posted instead.
func (o *ReviewOrchestrator) runReviews(ctx context.Context, log *slog.Logger, pr model.PRRef, pref model.PullRequestPreference) (n int, ran bool) {
	providers, ok := pref.PreferredModel.Providers()
	if !ok {
		log.Warn("unknown preferred model", "model", string(pref.PreferredModel))
		o.post(ctx, log, pr.CommentsURL, o.botName, unknownModelMessage(pref.PreferredModel))
		return 0, false
	}

	diff, err := o.gateway.FetchDiff(ctx, pr)
	if err != nil {
		log.Warn("diff fetch failed, reviewing empty diff", "error", err)
		diff = ""
	}

	results := make([]model.ReviewResult, len(providers))
	var g errgroup.Group
	for i, p := range providers {
		req := model.ReviewRequest{
			Diff:       diff,
			Focus:      pref.Focus,
			Strictness: pref.Strictness,
			Provider:   p,
		}
		g.Go(func() error {
			results[i] = o.review(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if !r.OK() {
			log.Warn("review failed", "provider", string(r.Provider), "kind", string(r.Err.Kind), "error", r.Err.Err)
		}
		o.post(ctx, log, pr.CommentsURL, string(r.Provider), r.DisplayText())
	}
	return len(providers), true
}

// review invokes one provider and converts any failure into a typed result.
func (o *ReviewOrchestrator) review(ctx context.Context, req model.ReviewRequest) model.ReviewResult {
	reviewer, ok := o.reviewers[req.Provider]
	if !ok {
		return model.ReviewResult{
			Provider: req.Provider,
			Err:      &model.ReviewError{Kind: model.ReviewErrNoReviewer},
		}
	}

	text, err := reviewer.Review(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = driven.ErrEmptyReview
	}
	if err != nil {
		return model.ReviewResult{
			Provider: req.Provider,
			Err:      &model.ReviewError{Kind: classifyReviewError(err), Err: err},
		}
	}
	return model.ReviewResult{Provider: req.Provider, Text: text}
}

func classifyReviewError(err error) model.ReviewErrorKind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.ReviewErrCanceled
	case errors.Is(err, driven.ErrReviewerAuth):
		return model.ReviewErrAuth
	case errors.Is(err, driven.ErrReviewerRateLimited):
		return model.ReviewErrRateLimited
	case errors.Is(err, driven.ErrReviewerUnavailable):
		return model.ReviewErrUnavailable
	case errors.Is(err, driven.ErrEmptyReview):
		return model.ReviewErrEmpty
	default:
		return model.ReviewErrUnknown
	}
}

// post is best-effort: failures are logged and never retried.
func (o *ReviewOrchestrator) post(ctx context.Context, log *slog.Logger, commentsURL, label, body string) {
	if err := o.gateway.PostComment(ctx, commentsURL, label, body); err != nil {
		log.Error("posting comment failed", "label", label, "error", err)
	}
}
