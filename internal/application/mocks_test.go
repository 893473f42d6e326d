package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

// --- Mock implementations ---

type mockStore struct {
	mu      sync.Mutex
	records map[string]model.PullRequestPreference
	saves   int
	err     error
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]model.PullRequestPreference)}
}

func (m *mockStore) Get(_ context.Context, key string) (*model.PullRequestPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *mockStore) Save(_ context.Context, key string, pref model.PullRequestPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	pref.Onboarded = m.records[key].Onboarded
	m.records[key] = pref
	return nil
}

func (m *mockStore) MarkOnboarded(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	rec := m.records[key]
	if rec.Onboarded {
		return false, nil
	}
	rec.Onboarded = true
	m.records[key] = rec
	return true, nil
}

func (m *mockStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.records, key)
	return nil
}

func (m *mockStore) record(key string) (model.PullRequestPreference, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	return rec, ok
}

type postedComment struct {
	URL   string
	Label string
	Body  string
}

type mockGateway struct {
	mu         sync.Mutex
	diff       string
	diffErr    error
	postErr    error
	diffFetch  int
	comments   []postedComment
	fetchedFor []model.PRRef
}

func (m *mockGateway) FetchDiff(_ context.Context, pr model.PRRef) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diffFetch++
	m.fetchedFor = append(m.fetchedFor, pr)
	return m.diff, m.diffErr
}

func (m *mockGateway) PostComment(_ context.Context, commentsURL, label, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, postedComment{URL: commentsURL, Label: label, Body: body})
	return m.postErr
}

func (m *mockGateway) posted() []postedComment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]postedComment, len(m.comments))
	copy(out, m.comments)
	return out
}

func (m *mockGateway) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.diffFetch
}

type mockReviewer struct {
	provider model.Provider
	text     string
	err      error
	calls    atomic.Int32

	mu       sync.Mutex
	requests []model.ReviewRequest
}

func (m *mockReviewer) Provider() model.Provider { return m.provider }

func (m *mockReviewer) Review(_ context.Context, req model.ReviewRequest) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.text, m.err
}

func (m *mockReviewer) lastRequest() model.ReviewRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

var errStoreDown = errors.New("store down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
