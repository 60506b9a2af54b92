// Package oauth runs the Google authorization-code redirect flow: nonce
// issuance, the full-page redirect, CSRF-checked callback handling and the
// code exchange through the marketplace backend.
package oauth

import (
	"context"
	"errors"
	"sync"

	"taskmarket-client/internal/backend"
	"taskmarket-client/internal/logger"
	"taskmarket-client/internal/session"
)

// State of the redirect flow.
type State int

const (
	StateIdle State = iota
	StatePendingRedirect
	StateAwaitingCallback
	StateExchanging
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingRedirect:
		return "pending_redirect"
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateExchanging:
		return "exchanging"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Exchanger submits the authorization code to the backend.
type Exchanger interface {
	ExchangeGoogleCode(ctx context.Context, code string) (backend.AuthResponse, error)
}

// OutcomeKind classifies what a callback delivery turned out to be.
type OutcomeKind int

const (
	// OutcomeIgnored: not a valid callback for the pending redirect (absent
	// or mismatched state, or nothing pending). Treated as a normal page
	// load; no exchange, no session change.
	OutcomeIgnored OutcomeKind = iota
	OutcomeAuthenticated
	OutcomeFailed
)

// Outcome tells the UI layer what to do after a callback delivery.
type Outcome struct {
	Kind       OutcomeKind
	RedirectTo string // navigation target on success
	Message    string // user-facing failure message
	Retryable  bool   // failure was an expired upstream grant; offer retry
	CleanURL   bool   // strip code/state query params to prevent replay on refresh
	Err        error
}

// Flow drives the redirect flow. One exchange per consumed nonce is
// structural: the nonce is invalidated before any network call, so a
// redelivered (code, state) pair lands in the ignore branch.
type Flow struct {
	mu       sync.Mutex
	state    State
	provider *GoogleProvider
	slot     StateSlot
	sessions *session.Store
	backend  Exchanger
}

func NewFlow(provider *GoogleProvider, slot StateSlot, sessions *session.Store, exchanger Exchanger) *Flow {
	return &Flow{
		state:    StateIdle,
		provider: provider,
		slot:     slot,
		sessions: sessions,
		backend:  exchanger,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// BeginRedirect issues a fresh nonce and returns the authorization URL for
// a full navigation. A previous pending nonce is overwritten.
func (f *Flow) BeginRedirect(ctx context.Context) (string, error) {
	nonce, err := f.slot.Issue(ctx)
	if err != nil {
		return "", err
	}
	f.setState(StatePendingRedirect)
	return f.provider.AuthCodeURL(nonce), nil
}

// MarkAwaitingCallback records that the navigation has been handed to the
// provider.
func (f *Flow) MarkAwaitingCallback() {
	f.setState(StateAwaitingCallback)
}

// HandleCallback processes query parameters delivered on return from the
// provider. The nonce is consumed before the exchange; outcomes other than
// ignored instruct the UI to strip the callback parameters so a refresh
// cannot replay them.
func (f *Flow) HandleCallback(ctx context.Context, code, state string) Outcome {
	if code == "" || state == "" {
		return Outcome{Kind: OutcomeIgnored}
	}

	epoch := f.sessions.Epoch()

	ok, err := f.slot.Consume(ctx, state)
	if err != nil {
		// Fail closed: an unreadable slot is treated as no pending state.
		logger.Error("oauth state slot unavailable", map[string]any{
			"error": err.Error(),
		})
		return Outcome{Kind: OutcomeIgnored, Err: err}
	}
	if !ok {
		logger.Warn("oauth callback state mismatch, ignoring", nil)
		return Outcome{Kind: OutcomeIgnored}
	}

	f.setState(StateExchanging)

	resp, err := f.backend.ExchangeGoogleCode(ctx, code)
	if err != nil {
		f.setState(StateFailed)
		if errors.Is(err, backend.ErrUpstreamUnauthorized) {
			return Outcome{
				Kind:      OutcomeFailed,
				Message:   "Google authentication expired. Please try logging in again.",
				Retryable: true,
				CleanURL:  true,
				Err:       err,
			}
		}
		return Outcome{
			Kind:     OutcomeFailed,
			Message:  "Google login failed. Please try again.",
			CleanURL: true,
			Err:      err,
		}
	}

	if err := f.sessions.SetSince(ctx, epoch, resp.User, resp.Token); err != nil {
		if errors.Is(err, session.ErrSuperseded) {
			// A logout landed while the exchange was in flight; the login
			// result is disregarded.
			f.setState(StateIdle)
			return Outcome{Kind: OutcomeIgnored, CleanURL: true}
		}
		f.setState(StateFailed)
		return Outcome{
			Kind:     OutcomeFailed,
			Message:  "Google login failed. Please try again.",
			CleanURL: true,
			Err:      err,
		}
	}

	f.setState(StateAuthenticated)
	return Outcome{
		Kind:       OutcomeAuthenticated,
		RedirectTo: "/dashboard",
		CleanURL:   true,
	}
}
