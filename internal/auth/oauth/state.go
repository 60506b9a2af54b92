package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"taskmarket-client/internal/storage"
)

// StateSlot is the one-slot register holding the pending CSRF nonce.
// Issuing a new nonce overwrites any previous one (last-writer-wins);
// consuming is compare-and-invalidate, so a nonce matches at most once even
// under duplicate callback delivery.
type StateSlot struct {
	kv storage.KV
}

func NewStateSlot(kv storage.KV) StateSlot {
	return StateSlot{kv: kv}
}

// Issue generates a fresh 256-bit nonce and persists it as the sole pending
// state.
func (s StateSlot) Issue(ctx context.Context) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	nonce := base64.RawURLEncoding.EncodeToString(b)

	if err := s.kv.Set(ctx, storage.KeyOAuthState, nonce); err != nil {
		return "", err
	}
	return nonce, nil
}

// Consume compares received against the pending nonce and, on a match,
// deletes the slot before reporting success. No pending nonce, or a
// mismatch, reports false with the slot untouched: a forged state must not
// cancel a legitimate in-flight redirect.
func (s StateSlot) Consume(ctx context.Context, received string) (bool, error) {
	if received == "" {
		return false, nil
	}
	pending, ok, err := s.kv.Get(ctx, storage.KeyOAuthState)
	if err != nil {
		return false, err
	}
	if !ok || pending != received {
		return false, nil
	}
	if err := s.kv.Delete(ctx, storage.KeyOAuthState); err != nil {
		return false, err
	}
	return true, nil
}
