package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/dualreview/internal/application"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON message response with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, WebhookResponse{Message: message})
}

// WebhookResponse is the body returned for every webhook delivery.
type WebhookResponse struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
	Reviews int    `json:"reviews,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toWebhookResponse(out application.Outcome) WebhookResponse {
	return WebhookResponse{
		Message: out.Message,
		Event:   string(out.Kind),
		Reviews: out.Reviews,
	}
}
