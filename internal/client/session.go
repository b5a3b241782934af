package client

import (
	"sync"
)

// State is the client-side session lifecycle.
//
//	Uninitialized -> Loading -> Anonymous | Authenticated
//	Authenticated -> Anonymous (logout or unrecoverable renewal failure)
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Profile is the cached identity record of the authenticated user.
type Profile struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session holds the current access credential and user profile. All
// mutations run under the lock and mirror the credential into durable
// storage, so a read that begins after a mutation returns observes the new
// value and a process restart can restore the session.
//
// Exactly one credential is current at any instant; replacing it makes the
// previous value stale for every future call, even if an already-dispatched
// request still carries it.
type Session struct {
	mu         sync.RWMutex
	state      State
	profile    Profile
	credential string
	storage    CredentialStorage
}

// NewSession starts in the Uninitialized state. storage must not be nil.
func NewSession(storage CredentialStorage) *Session {
	return &Session{state: StateUninitialized, storage: storage}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Profile returns the cached profile; ok is false unless Authenticated.
func (s *Session) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.state == StateAuthenticated
}

// Credential returns the current access token, or "" when none is held.
// Loading sessions expose their candidate token so the restore check can
// present it to the server.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// SetAuthenticated installs a fresh profile and credential, as produced by
// login or register, and mirrors the credential durably.
func (s *Session) SetAuthenticated(p Profile, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.profile = p
	s.credential = credential
	_ = s.storage.Save(credential)
}

// SetCredential replaces only the credential after a renewal; the profile is
// unchanged.
func (s *Session) SetCredential(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	_ = s.storage.Save(credential)
}

// Clear drops the session back to Anonymous and removes the durable
// credential.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.profile = Profile{}
	s.credential = ""
	_ = s.storage.Clear()
}

// beginRestore moves Uninitialized -> Loading with a candidate credential
// read from durable storage. The caller verifies the candidate and settles
// the session with SetAuthenticated or Clear.
func (s *Session) beginRestore(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateLoading
	s.credential = credential
}

// settleAnonymous is the restore outcome when no credential was stored.
func (s *Session) settleAnonymous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
}
