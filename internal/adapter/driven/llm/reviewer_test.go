package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
	"github.com/ericfisherdev/dualreview/internal/domain/port/driven"
)

func testRequest() model.ReviewRequest {
	return model.ReviewRequest{
		Diff:       sampleDiff,
		Focus:      []model.Focus{model.FocusPerformance, model.FocusSecurity},
		Strictness: model.StrictnessHigh,
	}
}

func completion(content string) chatResponse {
	return chatResponse{Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}}}
}

// newTestReviewer points a reviewer at handler and disables backoff delays.
func newTestReviewer(t *testing.T, newFn func(Options) *ChatReviewer, handler http.Handler) *ChatReviewer {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	r := newFn(Options{APIKey: "test-key", BaseURL: server.URL, HTTPClient: server.Client()})
	r.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return r
}

func TestOpenAI_Review(t *testing.T) {
	var got chatRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(completion("  - line 3: unchecked error\n"))
	})

	r := newTestReviewer(t, NewOpenAI, handler)
	text, err := r.Review(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "- line 3: unchecked error", text)
	assert.Equal(t, model.ProviderOpenAI, r.Provider())

	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Equal(t, 500, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "performance, security")
	assert.Contains(t, got.Messages[0].Content, "nits and style tips")
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "func main() {}")
}

func TestDeepSeek_Defaults(t *testing.T) {
	var got chatRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(completion("LGTM"))
	})

	r := newTestReviewer(t, NewDeepSeek, handler)
	text, err := r.Review(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "LGTM", text)
	assert.Equal(t, model.ProviderDeepSeek, r.Provider())
	assert.Equal(t, DefaultDeepSeekModel, got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
}

func TestReview_MissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	t.Cleanup(server.Close)

	r := NewDeepSeek(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := r.Review(context.Background(), testRequest())

	assert.ErrorIs(t, err, driven.ErrReviewerAuth)
	assert.Zero(t, calls.Load())
}

func TestReview_StatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      error
		wantAttempts int32
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`, wantErr: driven.ErrReviewerAuth, wantAttempts: 1},
		{name: "forbidden", status: http.StatusForbidden, wantErr: driven.ErrReviewerAuth, wantAttempts: 1},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: driven.ErrReviewerRateLimited, wantAttempts: 4},
		{name: "server error", status: http.StatusBadGateway, wantErr: driven.ErrReviewerUnavailable, wantAttempts: 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var attempts atomic.Int32
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			r := newTestReviewer(t, NewOpenAI, handler)
			_, err := r.Review(context.Background(), testRequest())

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantAttempts, attempts.Load())
		})
	}
}

func TestReview_BadRequestIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"context too long"}`))
	})

	r := newTestReviewer(t, NewDeepSeek, handler)
	_, err := r.Review(context.Background(), testRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "context too long")
	assert.EqualValues(t, 1, attempts.Load())
}

func TestReview_RetriesRateLimitThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(completion("LGTM"))
	})

	r := newTestReviewer(t, NewOpenAI, handler)
	text, err := r.Review(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "LGTM", text)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestReview_EmptyContent(t *testing.T) {
	for name, resp := range map[string]chatResponse{
		"blank content": completion("   \n"),
		"no choices":    {},
	} {
		t.Run(name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(resp)
			})

			r := newTestReviewer(t, NewOpenAI, handler)
			_, err := r.Review(context.Background(), testRequest())

			assert.ErrorIs(t, err, driven.ErrEmptyReview)
		})
	}
}

func TestReview_Timeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	r := newTestReviewer(t, NewOpenAI, handler)
	r.timeout = 50 * time.Millisecond

	_, err := r.Review(context.Background(), testRequest())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
