package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"taskmarket-client/internal/auth"
	"taskmarket-client/internal/session"
)

const googleIssuer = "https://accounts.google.com"

// googleEndpoint is the documented authorize/token pair, used when OIDC
// discovery is unavailable (offline runs, tests).
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// GoogleProvider builds authorization URLs for the Google redirect flow and
// optionally verifies provider-issued credentials. This is a public client:
// it holds no client secret, and the authorization code is exchanged by the
// marketplace backend, never against the provider's token endpoint.
type GoogleProvider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleProvider discovers the Google endpoints and returns a provider
// that can also verify ID-token credentials.
func NewGoogleProvider(ctx context.Context, clientID, redirectURL string) (*GoogleProvider, error) {
	if clientID == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Endpoint:    oidcProvider.Endpoint(),
			Scopes:      []string{"email", "profile"},
		},
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// NewStaticGoogleProvider skips discovery and uses the fixed endpoints.
// Credentials decoded through it are not signature-verified.
func NewStaticGoogleProvider(clientID, redirectURL string) (*GoogleProvider, error) {
	if clientID == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Endpoint:    googleEndpoint,
			Scopes:      []string{"email", "profile"},
		},
	}, nil
}

// AuthCodeURL builds the full-navigation authorization URL: client_id,
// redirect_uri, scope, response_type=code, state and prompt=select_account.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Identity decodes a provider-issued JWT credential, verifying the
// signature when discovery gave us a verifier.
func (p *GoogleProvider) Identity(ctx context.Context, rawCredential string) (auth.ExternalIdentity, error) {
	if p.verifier == nil {
		return auth.DecodeGoogleCredential(rawCredential)
	}

	idToken, err := p.verifier.Verify(ctx, rawCredential)
	if err != nil {
		return auth.ExternalIdentity{}, fmt.Errorf("credential verification failed: %w", err)
	}

	var claims struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		Picture       string `json:"picture"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return auth.ExternalIdentity{}, fmt.Errorf("credential claims parse failed: %w", err)
	}
	if claims.Email == "" {
		return auth.ExternalIdentity{}, errors.New("credential missing email claim")
	}

	return auth.ExternalIdentity{
		Provider: session.ProviderGoogle,
		Subject:  idToken.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Avatar:   claims.Picture,
		Verified: claims.EmailVerified,
	}, nil
}
