// Package memory implements driven ports with process-lifetime storage.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
	"github.com/ericfisherdev/dualreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PreferenceStore = (*PreferenceStore)(nil)

// entry guards one pull request's record. The index lock is only held to find
// or drop entries, so updates to different keys never contend on it for long.
type entry struct {
	mu   sync.Mutex
	pref model.PullRequestPreference
}

// PreferenceStore is an in-memory PreferenceStore. Records vanish on restart.
type PreferenceStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewPreferenceStore creates an empty store.
func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{entries: make(map[string]*entry)}
}

// Get returns a copy of the record for key, or nil if there is none.
func (s *PreferenceStore) Get(_ context.Context, key string) (*model.PullRequestPreference, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	pref := clonePreference(e.pref)
	return &pref, nil
}

// Save replaces the configuration for key, keeping the onboarded flag.
func (s *PreferenceStore) Save(_ context.Context, key string, pref model.PullRequestPreference) error {
	e := s.getOrCreate(key)

	e.mu.Lock()
	defer e.mu.Unlock()
	onboarded := e.pref.Onboarded
	e.pref = clonePreference(pref)
	e.pref.Onboarded = onboarded
	return nil
}

// MarkOnboarded flips onboarded to true and reports whether this call did it.
func (s *PreferenceStore) MarkOnboarded(_ context.Context, key string) (bool, error) {
	e := s.getOrCreate(key)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pref.Onboarded {
		return false, nil
	}
	e.pref.Onboarded = true
	return true, nil
}

// Delete drops the record for key. Missing keys are ignored.
func (s *PreferenceStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (s *PreferenceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *PreferenceStore) getOrCreate(key string) *entry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e
	}
	e = &entry{}
	s.entries[key] = e
	return e
}

func clonePreference(p model.PullRequestPreference) model.PullRequestPreference {
	p.Focus = slices.Clone(p.Focus)
	return p
}
