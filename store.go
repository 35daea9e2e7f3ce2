package gymgate

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/memberly/gymgate/storage"
)

// Store is the single source of truth for "who is logged in right now".
// It keeps the current identity in memory, persists it (and the raw
// bearer token) through a [storage.Store], and fans updates out to
// subscribers.
//
// The app shell has one logical writer (UI events run serially), but the
// store still locks internally so observer bookkeeping stays safe when a
// guard evaluation and a logout race. SetIdentity and Clear persist both
// storage keys in a single atomic Apply before touching in-memory state,
// so no reader ever observes the token without the snapshot or vice
// versa.
type Store struct {
	backend storage.Store
	buffer  int

	mu      sync.RWMutex
	current *Identity
	subs    map[string]*Subscription

	// onConflate is invoked when a slow subscriber loses an
	// intermediate update. Wired to metrics by the Engine.
	onConflate func()
}

// NewStore builds a session store over the given persistence backend.
func NewStore(backend storage.Store, cfg SessionConfig) *Store {
	buffer := cfg.ObserverBuffer
	if buffer <= 0 {
		buffer = 1
	}
	return &Store{
		backend: backend,
		buffer:  buffer,
		subs:    make(map[string]*Subscription),
	}
}

// Subscription is a live feed of identity updates. The first receive
// replays the value current at subscribe time; every later receive is an
// update, ending with nil on logout. Slow consumers observe the latest
// value, intermediate updates may be conflated.
type Subscription struct {
	id      string
	store   *Store
	updates chan *Identity
	once    sync.Once
}

// Updates returns the receive side of the subscription.
func (s *Subscription) Updates() <-chan *Identity {
	return s.updates
}

// Close detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subs, s.id)
		close(s.updates)
		s.store.mu.Unlock()
	})
}

// push delivers under the store write lock; never blocks the writer.
func (s *Subscription) push(value *Identity, conflated func()) {
	for {
		select {
		case s.updates <- value:
			return
		default:
			select {
			case <-s.updates:
				if conflated != nil {
					conflated()
				}
			default:
			}
		}
	}
}

// Restore rehydrates the session from persisted storage on startup.
//
// The snapshot is adopted only when both persisted keys are present and
// the snapshot parses; any half state (one key without the other) and any
// corrupt snapshot clears both keys so the process starts logged out
// rather than partially trusted. Restore returns [ErrSnapshotCorrupt] in
// the corrupt case after recovering; storage failures are returned as-is.
func (s *Store) Restore(ctx context.Context) error {
	values, err := s.backend.Read(ctx, storage.KeyToken, storage.KeyCurrentUser)
	if err != nil {
		return err
	}

	rawToken, haveToken := values[storage.KeyToken]
	snapshot, haveSnapshot := values[storage.KeyCurrentUser]

	if !haveToken || !haveSnapshot || rawToken == "" {
		if haveToken || haveSnapshot {
			return s.Clear(ctx)
		}
		return nil
	}

	identity, err := DecodeIdentity(snapshot)
	if err != nil {
		if clearErr := s.Clear(ctx); clearErr != nil {
			return clearErr
		}
		return ErrSnapshotCorrupt
	}

	s.mu.Lock()
	s.current = identity
	s.notifyLocked(identity)
	s.mu.Unlock()
	return nil
}

// SetIdentity replaces the current identity, persisting the raw token and
// the snapshot together before notifying subscribers.
func (s *Store) SetIdentity(ctx context.Context, rawToken string, identity *Identity) error {
	if identity == nil || !identity.Role.Valid() {
		return ErrSnapshotCorrupt
	}
	if rawToken == "" {
		return errors.New("session: empty token")
	}

	snapshot, err := EncodeIdentity(identity)
	if err != nil {
		return err
	}

	set := map[string]string{
		storage.KeyToken:       rawToken,
		storage.KeyCurrentUser: snapshot,
	}
	if err := s.backend.Apply(ctx, set, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = identity.Clone()
	s.notifyLocked(identity)
	s.mu.Unlock()
	return nil
}

// UpdateIdentity refreshes the snapshot for an already-authenticated
// session, keeping the persisted token untouched.
func (s *Store) UpdateIdentity(ctx context.Context, identity *Identity) error {
	if identity == nil || !identity.Role.Valid() {
		return ErrSnapshotCorrupt
	}

	s.mu.RLock()
	loggedIn := s.current != nil
	s.mu.RUnlock()
	if !loggedIn {
		return ErrNotLoggedIn
	}

	snapshot, err := EncodeIdentity(identity)
	if err != nil {
		return err
	}
	set := map[string]string{storage.KeyCurrentUser: snapshot}
	if err := s.backend.Apply(ctx, set, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = identity.Clone()
	s.notifyLocked(identity)
	s.mu.Unlock()
	return nil
}

// Current returns the current identity, or nil when logged out. The
// returned value is a copy.
func (s *Store) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Token reads the persisted raw bearer token. Empty means logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	values, err := s.backend.Read(ctx, storage.KeyToken)
	if err != nil {
		return "", err
	}
	return values[storage.KeyToken], nil
}

// Observe subscribes to identity updates with replay of the current
// value. Callers must Close the subscription when done.
func (s *Store) Observe() *Subscription {
	sub := &Subscription{
		id:      uuid.NewString(),
		store:   s,
		updates: make(chan *Identity, s.buffer),
	}

	s.mu.Lock()
	s.subs[sub.id] = sub
	sub.push(s.current.Clone(), s.onConflate)
	s.mu.Unlock()
	return sub
}

// Clear logs the session out: both persisted keys are removed in one
// atomic Apply, the current identity becomes nil, and subscribers are
// notified. Calling Clear on an already-empty session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Apply(ctx, nil, []string{storage.KeyToken, storage.KeyCurrentUser}); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = nil
	s.notifyLocked(nil)
	s.mu.Unlock()
	return nil
}

func (s *Store) notifyLocked(identity *Identity) {
	for _, sub := range s.subs {
		sub.push(identity.Clone(), s.onConflate)
	}
}
