package client

import (
	"context"
	"sync"
	"time"
)

// refreshFunc performs one refresh round-trip and returns the new access
// token. It is the only network call the renewer makes.
type refreshFunc func(ctx context.Context, refreshToken string) (string, error)

// renewal is one in-flight refresh attempt. Waiters block on done; token and
// err are written exactly once, before done is closed.
type renewal struct {
	done  chan struct{}
	token string
	err   error
}

// Renewer serializes credential renewal: however many requests fail with 401
// at once, at most one refresh round-trip is in flight, and every waiter is
// released with that single round-trip's outcome.
//
// The refresh call runs in its own goroutine with its own timeout, detached
// from any requester's context. A caller that stops waiting (cancelled
// context, unmounted UI) does not abort the renewal; it must complete and
// release the remaining waiters so the coordinator never sticks in the
// renewing state.
type Renewer struct {
	session *Session
	refresh refreshFunc
	timeout time.Duration

	mu       sync.Mutex // guards inflight
	inflight *renewal
}

func newRenewer(session *Session, refresh refreshFunc, timeout time.Duration) *Renewer {
	return &Renewer{session: session, refresh: refresh, timeout: timeout}
}

// Renew joins (or starts) the current renewal and blocks until it settles.
// On success the session already holds the new credential and it is also
// returned for the caller's immediate retry. On failure the session has been
// cleared and the error is terminal for the caller.
//
// ctx only bounds how long this caller waits; it does not bound the renewal
// itself.
func (r *Renewer) Renew(ctx context.Context, refreshToken string) (string, error) {
	r.mu.Lock()
	att := r.inflight
	if att == nil {
		// The idle check and the in-flight store happen under one lock
		// hold, so concurrent 401 handlers cannot both start a refresh.
		att = &renewal{done: make(chan struct{})}
		r.inflight = att
		go r.run(att, refreshToken)
	}
	r.mu.Unlock()

	select {
	case <-att.done:
		return att.token, att.err
	case <-ctx.Done():
		return "", &AuthenticationError{Message: "renewal wait cancelled: " + ctx.Err().Error()}
	}
}

// run executes one refresh round-trip and settles every waiter.
func (r *Renewer) run(att *renewal, refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	token, err := r.refresh(ctx, refreshToken)
	if err != nil {
		// A timed-out refresh is indistinguishable from a rejected one:
		// the session is no longer renewable.
		r.session.Clear()
		att.err = &AuthenticationError{Message: "session renewal failed: " + err.Error()}
	} else {
		r.session.SetCredential(token)
		att.token = token
	}

	r.mu.Lock()
	r.inflight = nil
	r.mu.Unlock()

	close(att.done)
}
