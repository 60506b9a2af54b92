package storage

import "context"

// Well-known keys. The session store owns KeyUser and KeyToken, the OAuth
// flow owns KeyOAuthState, the UI layer owns KeyLanguage.
const (
	KeyUser       = "user"
	KeyToken      = "token"
	KeyOAuthState = "google_oauth_state"
	KeyLanguage   = "language"
)

// KV is the persisted key-value storage behind the client. Get returns
// ("", false, nil) for a missing key. SetMany and DeleteMany apply all
// entries as one write so readers never observe a partial pair.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error
}
