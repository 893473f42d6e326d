// Package httphandler is the HTTP driving adapter: the webhook endpoint and
// a health probe.
package httphandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/dualreview/internal/application"
	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

const (
	deliveryHeader      = "X-GitHub-Delivery"
	eventHeader         = "X-GitHub-Event"
	deliveryEchoHeader  = "X-DualReview-Delivery"
	maxPayloadBytes     = 25 << 20
	defaultProcessLimit = 3 * time.Minute
)

// Handler is the HTTP driving adapter that receives webhook deliveries.
type Handler struct {
	orchestrator   *application.ReviewOrchestrator
	processTimeout time.Duration
	logger         *slog.Logger
}

// NewHandler creates a Handler. processTimeout bounds the work done for one
// delivery; zero selects a three minute limit.
func NewHandler(orchestrator *application.ReviewOrchestrator, processTimeout time.Duration, logger *slog.Logger) *Handler {
	if processTimeout <= 0 {
		processTimeout = defaultProcessLimit
	}
	return &Handler{
		orchestrator:   orchestrator,
		processTimeout: processTimeout,
		logger:         logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook", h.Webhook)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Webhook decodes a delivery, hands it to the orchestrator and reports the
// outcome. Processing is synchronous but detached from client cancellation,
// so a sender that hangs up does not abort half-posted reviews.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	delivery := deliveryID(r)
	w.Header().Set(deliveryEchoHeader, delivery)
	log := h.logger.With("delivery", delivery, "github_event", r.Header.Get(eventHeader))

	var payload webhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		log.Warn("ignoring undecodable payload", "error", err)
		writeJSON(w, http.StatusOK, WebhookResponse{
			Message: "Ignored: payload is not a JSON object",
			Event:   string(model.EventIrrelevant),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.processTimeout)
	defer cancel()

	out, err := h.orchestrator.Handle(ctx, payload.toEvent())
	if err != nil {
		log.Error("webhook processing failed", "event", string(out.Kind), "error", err)
		writeJSON(w, http.StatusInternalServerError, WebhookResponse{
			Message: "Internal error while processing event",
			Event:   string(out.Kind),
		})
		return
	}

	log.Info("webhook processed", "event", string(out.Kind), "message", out.Message, "reviews", out.Reviews)
	writeJSON(w, http.StatusOK, toWebhookResponse(out))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// deliveryID returns the sender's delivery id, or a fresh UUID when absent.
func deliveryID(r *http.Request) string {
	if id := r.Header.Get(deliveryHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
