package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"taskmarket-client/internal/logger"
	"taskmarket-client/internal/storage"
)

// ErrSuperseded is returned by SetSince when a logout was applied after the
// operation observed its epoch. The write is dropped; a completed login must
// not resurrect a session the user has since ended.
var ErrSuperseded = errors.New("session: superseded by a later clear")

// Snapshot is a consistent view of the session. Identity and token are
// always present together or absent together.
type Snapshot struct {
	Identity *Identity
	Token    string
	Epoch    uint64
}

func (s Snapshot) Authenticated() bool {
	return s.Identity != nil && s.Token != ""
}

// Store owns the identity/token pair. It is the only writer of the "user"
// and "token" storage keys; both are persisted and published as one unit.
// Subscribers are notified synchronously on every mutation.
type Store struct {
	mu       sync.Mutex
	identity *Identity
	token    string
	epoch    uint64 // bumped on Clear
	nextSub  int
	subs     map[int]func(Snapshot)
	kv       storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, subs: make(map[int]func(Snapshot))}
}

// Load hydrates the store from persisted storage. Missing or corrupt state
// reads as unauthenticated; only storage-access failures are returned, and
// even those leave the store in a usable empty state.
func (s *Store) Load(ctx context.Context) error {
	rawUser, hasUser, err := s.kv.Get(ctx, storage.KeyUser)
	if err != nil {
		return err
	}
	token, hasToken, err := s.kv.Get(ctx, storage.KeyToken)
	if err != nil {
		return err
	}

	if !hasUser || !hasToken || token == "" {
		return nil
	}

	var identity Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		logger.Warn("discarding corrupt persisted identity", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	s.mu.Lock()
	s.identity = &identity
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Authenticated() bool {
	return s.Current().Authenticated()
}

// Epoch returns the value an operation must capture before going to the
// network if it intends to call SetSince on completion.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Set persists and publishes the pair unconditionally.
func (s *Store) Set(ctx context.Context, identity Identity, token string) error {
	return s.set(ctx, nil, identity, token)
}

// SetSince persists and publishes the pair unless a Clear was applied after
// epoch was observed, in which case it returns ErrSuperseded.
func (s *Store) SetSince(ctx context.Context, epoch uint64, identity Identity, token string) error {
	return s.set(ctx, &epoch, identity, token)
}

func (s *Store) set(ctx context.Context, epoch *uint64, identity Identity, token string) error {
	if token == "" {
		return errors.New("session: refusing to store identity without token")
	}
	rawUser, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if epoch != nil && s.epoch != *epoch {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err := s.kv.SetMany(ctx, map[string]string{
		storage.KeyUser:  string(rawUser),
		storage.KeyToken: token,
	}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.identity = &identity
	s.token = token
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// Clear removes identity and token together. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.kv.DeleteMany(ctx, storage.KeyUser, storage.KeyToken); err != nil {
		s.mu.Unlock()
		return err
	}
	s.identity = nil
	s.token = ""
	s.epoch++
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// UpdateIdentity replaces the identity while keeping the current token.
// Used for profile edits where no new credential is issued. Fails if the
// session is unauthenticated.
func (s *Store) UpdateIdentity(ctx context.Context, identity Identity) error {
	rawUser, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return errors.New("session: no active session to update")
	}
	if err := s.kv.Set(ctx, storage.KeyUser, string(rawUser)); err != nil {
		s.mu.Unlock()
		return err
	}
	s.identity = &identity
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// Subscribe registers fn to run synchronously after every mutation. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token, Epoch: s.epoch}
	if s.identity != nil {
		copied := *s.identity
		snap.Identity = &copied
	}
	return snap
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

// notify runs outside the lock so subscribers may read the store.
func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
