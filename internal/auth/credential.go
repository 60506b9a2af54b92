package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"taskmarket-client/internal/session"
)

type googleClaims struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// DecodeGoogleCredential extracts the profile claims from a provider-issued
// JWT credential. The signature is NOT verified here; the credential only
// seeds a login-or-register round trip and the backend is the authority on
// the resulting account. Callers holding an OIDC verifier should verify
// first.
func DecodeGoogleCredential(raw string) (ExternalIdentity, error) {
	var claims googleClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return ExternalIdentity{}, fmt.Errorf("auth: malformed credential: %w", err)
	}
	if claims.Email == "" {
		return ExternalIdentity{}, errors.New("auth: credential missing email claim")
	}
	return ExternalIdentity{
		Provider: session.ProviderGoogle,
		Subject:  claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Avatar:   claims.Picture,
		Verified: true,
	}, nil
}
