package client

import (
	"context"
	"sync"
)

// SessionStore is the single authoritative source of "who is the current
// user". It survives process restarts through a Snapshot and is reconciled
// with server truth exactly once, at hydration. State:
//
//	{uninitialized} → [Hydrate starts] → {loading} → {ready, authenticated?}
//
// There is no path back to loading after the first resolution.
type SessionStore struct {
	mu          sync.RWMutex
	identity    *Identity
	loading     bool
	initialized bool
	snapshot    Snapshot
}

func NewSessionStore(snapshot Snapshot) *SessionStore {
	// Loading holds until the initial validation round-trip completes, so
	// consumers gate protected behavior on it from the start.
	return &SessionStore{snapshot: snapshot, loading: true}
}

// Hydrate loads the persisted Identity (if any) as a tentative session, then
// confirms it against server truth via lookup. On any failure — missing or
// corrupted snapshot, network error, rejected session — it resolves to an
// unauthenticated ready state; hydration never fails the caller. Initialized
// flips to true exactly once; repeat calls are no-ops.
func (s *SessionStore) Hydrate(ctx context.Context, lookup func(context.Context) (*Identity, error)) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}

	stored, err := s.snapshot.Load()
	if err != nil || stored == nil {
		// A corrupted snapshot is "no session", never a fatal error.
		if err != nil {
			_ = s.snapshot.Clear()
		}
		s.identity = nil
		s.loading = false
		s.initialized = true
		s.mu.Unlock()
		return
	}

	// Tentative: the cached identity counts as authenticated until the
	// server confirms or rejects it.
	s.identity = stored
	s.mu.Unlock()

	confirmed, err := lookup(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || confirmed == nil {
		s.identity = nil
		_ = s.snapshot.Clear()
	} else {
		s.identity = confirmed
		_ = s.snapshot.Save(confirmed)
	}
	s.loading = false
	s.initialized = true
}

// Establish sets the current Identity and persists the snapshot. Used after
// a successful login.
func (s *SessionStore) Establish(identity *Identity) {
	s.set(identity)
}

// Refresh replaces the current Identity and persists the new snapshot. Used
// after profile edits or access token (re)generation; callers merge partial
// fields before calling it.
func (s *SessionStore) Refresh(identity *Identity) {
	s.set(identity)
}

func (s *SessionStore) set(identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.loading = false
	_ = s.snapshot.Save(identity)
}

// Clear notifies the backend best-effort, then removes the Identity and the
// persisted snapshot. Clearing locally succeeds unconditionally; a failed
// logout call is swallowed.
func (s *SessionStore) Clear(ctx context.Context, logout func(context.Context) error) {
	if logout != nil {
		_ = logout(ctx)
	}
	s.ClearLocal()
}

// ClearLocal removes the Identity and the snapshot without contacting the
// backend. The Gateway uses it on 401 to avoid a logout recursion.
func (s *SessionStore) ClearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	_ = s.snapshot.Clear()
}

// Current returns the cached Identity, or nil when unauthenticated.
func (s *SessionStore) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	clone := *s.identity
	return &clone
}

// IsAuthenticated is derived: true iff an Identity is present.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Loading reports whether the initial validation round-trip is still pending.
func (s *SessionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Initialized reports whether the first hydration attempt has completed,
// regardless of outcome.
func (s *SessionStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// accessToken returns the current bearer credential, or "" when absent.
func (s *SessionStore) accessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.AccessToken
}
