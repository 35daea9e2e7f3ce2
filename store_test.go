package gymgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/memberly/gymgate/storage"
)

func testIdentity(id int64, role Role) *Identity {
	return &Identity{
		ID:        id,
		FirstName: "Test",
		LastName:  "User",
		Email:     "user@memberly.dev",
		Role:      role,
	}
}

func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	backend := storage.NewMemory()
	return NewStore(backend, SessionConfig{ObserverBuffer: 4}), backend
}

func TestSetIdentityPersistsBothKeys(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	if err := store.SetIdentity(ctx, "tok-1", testIdentity(1, RoleClient)); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}

	values, err := backend.Read(ctx, storage.KeyToken, storage.KeyCurrentUser)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if values[storage.KeyToken] != "tok-1" {
		t.Fatalf("token = %q", values[storage.KeyToken])
	}
	if _, ok := values[storage.KeyCurrentUser]; !ok {
		t.Fatal("snapshot not persisted")
	}

	current := store.Current()
	if current == nil || current.ID != 1 {
		t.Fatalf("current = %+v", current)
	}
}

func TestSetIdentityValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.SetIdentity(ctx, "tok", nil); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Fatalf("nil identity: %v", err)
	}
	if err := store.SetIdentity(ctx, "tok", testIdentity(1, Role("MANAGER"))); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Fatalf("invalid role: %v", err)
	}
	if err := store.SetIdentity(ctx, "", testIdentity(1, RoleClient)); err == nil {
		t.Fatal("empty token accepted")
	}
	if store.Current() != nil {
		t.Fatal("failed writes must not change the current identity")
	}
}

func TestCurrentReturnsClone(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.SetIdentity(ctx, "tok", testIdentity(1, RoleClient)); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}

	got := store.Current()
	got.FirstName = "Mutated"

	if store.Current().FirstName != "Test" {
		t.Fatal("mutating the returned identity leaked into the store")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	backend := storage.NewMemory()
	ctx := context.Background()

	first := NewStore(backend, SessionConfig{})
	want := testIdentity(7, RoleAdmin)
	want.MembershipStatus = MembershipActive
	if err := first.SetIdentity(ctx, "tok-7", want); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}

	// A fresh store over the same backend restores the session.
	second := NewStore(backend, SessionConfig{})
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	got := second.Current()
	if got == nil || got.ID != 7 || got.Role != RoleAdmin || got.MembershipStatus != MembershipActive {
		t.Fatalf("restored identity = %+v", got)
	}

	tok, err := second.Token(ctx)
	if err != nil || tok != "tok-7" {
		t.Fatalf("token = %q, %v", tok, err)
	}
}

func TestRestoreEmptyBackend(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if store.Current() != nil {
		t.Fatal("expected logged-out session")
	}
}

func TestRestoreHalfStateClearsBothKeys(t *testing.T) {
	backend := storage.NewMemory()
	ctx := context.Background()

	// Token without snapshot.
	if err := backend.Apply(ctx, map[string]string{storage.KeyToken: "tok"}, nil); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	store := NewStore(backend, SessionConfig{})
	if err := store.Restore(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if store.Current() != nil {
		t.Fatal("half state must not produce a session")
	}
	if backend.Len() != 0 {
		t.Fatal("half state must be cleared from storage")
	}
}

func TestRestoreCorruptSnapshot(t *testing.T) {
	backend := storage.NewMemory()
	ctx := context.Background()

	seed := map[string]string{
		storage.KeyToken:       "tok",
		storage.KeyCurrentUser: "{not json",
	}
	if err := backend.Apply(ctx, seed, nil); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	store := NewStore(backend, SessionConfig{})
	if err := store.Restore(ctx); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Fatalf("expected ErrSnapshotCorrupt, got %v", err)
	}
	if store.Current() != nil {
		t.Fatal("corrupt snapshot must not produce a session")
	}
	if backend.Len() != 0 {
		t.Fatal("corrupt state must be cleared from storage")
	}
}

func TestRestoreRejectsInvalidRole(t *testing.T) {
	backend := storage.NewMemory()
	ctx := context.Background()

	seed := map[string]string{
		storage.KeyToken:       "tok",
		storage.KeyCurrentUser: `{"id":1,"email":"x@y.z","role":"SUPERUSER"}`,
	}
	if err := backend.Apply(ctx, seed, nil); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	store := NewStore(backend, SessionConfig{})
	if err := store.Restore(ctx); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Fatalf("expected ErrSnapshotCorrupt, got %v", err)
	}
}

func TestClearRemovesBothKeysAndIsIdempotent(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	if err := store.SetIdentity(ctx, "tok", testIdentity(1, RoleClient)); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if backend.Len() != 0 {
		t.Fatal("clear must remove both keys")
	}
	if store.Current() != nil {
		t.Fatal("clear must log out")
	}

	// Second clear is a no-op.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("repeated clear failed: %v", err)
	}
}

func TestUpdateIdentityRequiresLogin(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateIdentity(ctx, testIdentity(1, RoleClient))
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestUpdateIdentityKeepsToken(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	if err := store.SetIdentity(ctx, "tok-keep", testIdentity(1, RoleClient)); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}

	refreshed := testIdentity(1, RoleClient)
	refreshed.MembershipStatus = MembershipActive
	if err := store.UpdateIdentity(ctx, refreshed); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	values, err := backend.Read(ctx, storage.KeyToken)
	if err != nil || values[storage.KeyToken] != "tok-keep" {
		t.Fatalf("token = %q, %v", values[storage.KeyToken], err)
	}
	if store.Current().MembershipStatus != MembershipActive {
		t.Fatal("snapshot not refreshed")
	}
}

func recvIdentity(t *testing.T, sub *Subscription) *Identity {
	t.Helper()
	select {
	case v := <-sub.Updates():
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return nil
	}
}

func TestObserveReplaysCurrentValue(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// Logged out at subscribe time: first value is nil.
	sub := store.Observe()
	if got := recvIdentity(t, sub); got != nil {
		t.Fatalf("replay = %+v, want nil", got)
	}
	sub.Close()

	if err := store.SetIdentity(ctx, "tok", testIdentity(3, RoleAdmin)); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}

	sub = store.Observe()
	defer sub.Close()
	if got := recvIdentity(t, sub); got == nil || got.ID != 3 {
		t.Fatalf("replay = %+v", got)
	}
}

func TestObserveDeliversUpdatesUntilLogout(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sub := store.Observe()
	defer sub.Close()
	recvIdentity(t, sub) // replayed nil

	if err := store.SetIdentity(ctx, "tok", testIdentity(1, RoleClient)); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
	if got := recvIdentity(t, sub); got == nil || got.ID != 1 {
		t.Fatalf("update = %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if got := recvIdentity(t, sub); got != nil {
		t.Fatalf("logout update = %+v, want nil", got)
	}
}

func TestObserveConflatesSlowSubscribers(t *testing.T) {
	backend := storage.NewMemory()
	store := NewStore(backend, SessionConfig{ObserverBuffer: 1})

	conflated := 0
	store.onConflate = func() { conflated++ }

	sub := store.Observe()
	defer sub.Close()

	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		if err := store.SetIdentity(ctx, "tok", testIdentity(i, RoleClient)); err != nil {
			t.Fatalf("set identity failed: %v", err)
		}
	}

	// The subscriber never read; it must now observe the latest value.
	got := recvIdentity(t, sub)
	if got == nil || got.ID != 5 {
		t.Fatalf("latest = %+v, want identity 5", got)
	}
	if conflated == 0 {
		t.Fatal("expected conflation under backpressure")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	sub := store.Observe()
	sub.Close()
	sub.Close()

	// A closed subscription no longer receives updates.
	if err := store.SetIdentity(context.Background(), "tok", testIdentity(1, RoleClient)); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
}
