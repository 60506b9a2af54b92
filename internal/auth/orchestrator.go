package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"taskmarket-client/internal/backend"
	"taskmarket-client/internal/logger"
	"taskmarket-client/internal/session"
)

// API is the slice of the backend the orchestrator needs.
type API interface {
	Login(ctx context.Context, req backend.LoginRequest) (backend.AuthResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (backend.AuthResponse, error)
	UpdateProfile(ctx context.Context, userID session.EntityID, profile session.Identity) (session.Identity, error)
}

// Orchestrator coordinates password login, registration and the
// login-or-register fallback for externally-authenticated identities. It is
// the only component besides the OAuth flow that writes the session, and it
// always writes through the epoch guard so a login completing after a
// logout cannot resurrect the session.
type Orchestrator struct {
	api      API
	sessions *session.Store
}

func NewOrchestrator(api API, sessions *session.Store) *Orchestrator {
	return &Orchestrator{api: api, sessions: sessions}
}

// Credentials identify an account by email or phone.
type Credentials struct {
	Email    string
	Phone    string
	Password string
}

// Registration carries the sign-up form.
type Registration struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// Login authenticates with the backend and establishes the session. Any
// rejection by the backend maps to ErrAuthenticationFailed; transport and
// contract failures pass through unchanged.
func (o *Orchestrator) Login(ctx context.Context, creds Credentials) (session.Identity, error) {
	if creds.Email == "" && creds.Phone == "" {
		return session.Identity{}, &ValidationError{Field: "identifier", Reason: "email or phone required"}
	}

	epoch := o.sessions.Epoch()
	resp, err := o.api.Login(ctx, backend.LoginRequest{
		Email:    creds.Email,
		Phone:    creds.Phone,
		Password: creds.Password,
	})
	if err != nil {
		return session.Identity{}, mapLoginError(err)
	}

	if err := o.sessions.SetSince(ctx, epoch, resp.User, resp.Token); err != nil {
		return session.Identity{}, err
	}
	return resp.User, nil
}

// Register creates an account and establishes the session. The password
// confirmation is checked before any network call.
func (o *Orchestrator) Register(ctx context.Context, reg Registration) (session.Identity, error) {
	if reg.Password != reg.ConfirmPassword {
		return session.Identity{}, &ValidationError{Field: "password", Reason: "passwords do not match"}
	}
	if reg.Email == "" {
		return session.Identity{}, &ValidationError{Field: "email", Reason: "required"}
	}

	epoch := o.sessions.Epoch()
	resp, err := o.api.Register(ctx, backend.RegisterRequest{
		Name:     reg.Name,
		Email:    reg.Email,
		Phone:    reg.Phone,
		Password: reg.Password,
	})
	if err != nil {
		return session.Identity{}, fmt.Errorf("registration failed: %w", err)
	}

	if err := o.sessions.SetSince(ctx, epoch, resp.User, resp.Token); err != nil {
		return session.Identity{}, err
	}
	return resp.User, nil
}

// LoginOrRegisterExternal logs in with a decoded third-party identity,
// registering the account first when the backend does not know it. The
// backend has no find-or-create endpoint, so the miss costs one extra round
// trip. Only a definite "unknown account" signal falls through to
// registration; network and server failures propagate so a transient error
// cannot mint a duplicate account.
func (o *Orchestrator) LoginOrRegisterExternal(ctx context.Context, identity ExternalIdentity) (session.Identity, error) {
	epoch := o.sessions.Epoch()

	resp, err := o.api.Login(ctx, backend.LoginRequest{
		Email:    identity.Email,
		Provider: identity.Provider,
	})
	if err != nil {
		mapped := mapLoginError(err)
		if !errors.Is(mapped, ErrAuthenticationFailed) && !backend.IsNotFound(err) {
			return session.Identity{}, mapped
		}

		logger.Info("external identity unknown, registering", map[string]any{
			"provider": identity.Provider,
		})
		resp, err = o.api.Register(ctx, backend.RegisterRequest{
			Name:     identity.Name,
			Email:    identity.Email,
			Avatar:   identity.Avatar,
			Verified: true,
			Provider: identity.Provider,
		})
		if err != nil {
			return session.Identity{}, fmt.Errorf("registration fallback failed: %w", err)
		}
	}

	if err := o.sessions.SetSince(ctx, epoch, resp.User, resp.Token); err != nil {
		return session.Identity{}, err
	}
	return resp.User, nil
}

// UpdateProfile pushes profile edits to the backend and replaces the stored
// identity, keeping the existing token.
func (o *Orchestrator) UpdateProfile(ctx context.Context, profile session.Identity) (session.Identity, error) {
	current := o.sessions.Current()
	if !current.Authenticated() {
		return session.Identity{}, ErrAuthenticationFailed
	}

	updated, err := o.api.UpdateProfile(ctx, current.Identity.ID, profile)
	if err != nil {
		return session.Identity{}, err
	}
	if err := o.sessions.UpdateIdentity(ctx, updated); err != nil {
		return session.Identity{}, err
	}
	return updated, nil
}

// Logout ends the session. Idempotent.
func (o *Orchestrator) Logout(ctx context.Context) error {
	return o.sessions.Clear(ctx)
}

// mapLoginError converts credential rejections (401/403) into
// ErrAuthenticationFailed. Transport failures, contract violations and 5xx
// pass through unchanged: a struggling backend is not the same thing as a
// wrong password.
func mapLoginError(err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return fmt.Errorf("%w: %s", ErrAuthenticationFailed, apiErr.Message)
	}
	return err
}
