package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// fakeStore is an in-memory CredentialStore with injectable failures.
type fakeStore struct {
	creds    Credentials
	loadErr  error
	saveErr  error
	clearErr error
}

func (f *fakeStore) Load() (Credentials, error) {
	if f.loadErr != nil {
		return Credentials{}, f.loadErr
	}
	return f.creds, nil
}

func (f *fakeStore) Save(c Credentials) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.creds = c
	return nil
}

func (f *fakeStore) Clear() error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.creds = Credentials{}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustAuthenticated(t *testing.T, token string, user User) Session {
	t.Helper()
	s, err := Authenticated(token, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestContextStartsUnhydratedAndAnonymous(t *testing.T) {
	c := NewContext(&fakeStore{}, testLogger())

	if c.Hydrated() {
		t.Error("expected new context to be unhydrated")
	}
	if c.Current().IsAuthenticated() {
		t.Error("expected new context to be anonymous")
	}
}

func TestHydrateRestoresStoredSession(t *testing.T) {
	store := &fakeStore{creds: Credentials{
		Token: "T1",
		User:  json.RawMessage(`{"id":1,"name":"A","email":"a@b.com"}`),
	}}
	c := NewContext(store, testLogger())

	c.Hydrate()

	if !c.Hydrated() {
		t.Error("expected context to be hydrated")
	}
	token, ok := c.Current().Token()
	if !ok || token != "T1" {
		t.Errorf("expected token T1, got %q (ok=%v)", token, ok)
	}
	user, _ := c.Current().User()
	if user.ID != 1 || user.Email != "a@b.com" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestHydrateIdempotent(t *testing.T) {
	store := &fakeStore{creds: Credentials{
		Token: "T1",
		User:  json.RawMessage(`{"id":1,"name":"A","email":"a@b.com"}`),
	}}
	c := NewContext(store, testLogger())

	c.Hydrate()
	first := c.Current()
	c.Hydrate()
	second := c.Current()

	if first != second {
		t.Errorf("expected identical state after repeated hydration: %+v vs %+v", first, second)
	}
	if !c.Hydrated() {
		t.Error("expected context to stay hydrated")
	}
}

func TestHydrateDegradesOnStoreError(t *testing.T) {
	c := NewContext(&fakeStore{loadErr: errors.New("disk broke")}, testLogger())

	c.Hydrate()

	if !c.Hydrated() {
		t.Error("expected context to be hydrated even when the store fails")
	}
	if c.Current().IsAuthenticated() {
		t.Error("expected anonymous session when the store fails")
	}
}

func TestHydrateDegradesOnMalformedUser(t *testing.T) {
	store := &fakeStore{creds: Credentials{Token: "T1", User: json.RawMessage(`garbage`)}}
	c := NewContext(store, testLogger())

	c.Hydrate()

	if c.Current().IsAuthenticated() {
		t.Error("expected anonymous session for a malformed user record")
	}
}

func TestSetAuthPersistsBeforeCommit(t *testing.T) {
	store := &fakeStore{}
	c := NewContext(store, testLogger())

	sess := mustAuthenticated(t, "T1", User{ID: 1, Name: "A", Email: "a@b.com"})
	if err := c.SetAuth(sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.creds.Token != "T1" {
		t.Errorf("expected durable token T1, got %q", store.creds.Token)
	}
	if !c.Current().IsAuthenticated() {
		t.Error("expected in-memory session to be authenticated")
	}
}

func TestSetAuthFailedPersistLeavesMemoryUntouched(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	c := NewContext(store, testLogger())
	c.Hydrate()

	sess := mustAuthenticated(t, "T1", User{ID: 1})
	if err := c.SetAuth(sess); err == nil {
		t.Fatal("expected error when persistence fails")
	}

	if c.Current().IsAuthenticated() {
		t.Error("expected memory to stay anonymous when the durable write failed")
	}
}

func TestSetAuthAnonymousClearsStore(t *testing.T) {
	store := &fakeStore{}
	c := NewContext(store, testLogger())

	if err := c.SetAuth(mustAuthenticated(t, "T1", User{ID: 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetAuth(Anonymous()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.creds.Token != "" || len(store.creds.User) != 0 {
		t.Errorf("expected cleared store, got %+v", store.creds)
	}
	if c.Current().IsAuthenticated() {
		t.Error("expected anonymous in-memory session")
	}
}

func TestLogoutClearsEvenWhenStoreFails(t *testing.T) {
	store := &fakeStore{clearErr: errors.New("locked")}
	c := NewContext(store, testLogger())
	if err := c.SetAuth(mustAuthenticated(t, "T1", User{ID: 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := c.Logout()
	if err == nil {
		t.Error("expected the durable clear failure to be reported")
	}
	if c.Current().IsAuthenticated() {
		t.Error("expected in-memory session to be cleared regardless")
	}
}

func TestSubscribersNotifiedSynchronously(t *testing.T) {
	c := NewContext(&fakeStore{}, testLogger())

	var seen []bool
	c.Subscribe(func(s Session) {
		seen = append(seen, s.IsAuthenticated())
	})

	if err := c.SetAuth(mustAuthenticated(t, "T1", User{ID: 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Logout(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []bool{true, false}
	if len(seen) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d: expected authenticated=%v, got %v", i, want[i], seen[i])
		}
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	c := NewContext(&fakeStore{}, testLogger())

	calls := 0
	cancel := c.Subscribe(func(Session) { calls++ })

	if err := c.SetAuth(mustAuthenticated(t, "T1", User{ID: 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()
	if err := c.Logout(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 notification after unsubscribe, got %d", calls)
	}
}

func TestSubscriberMayReadContext(t *testing.T) {
	c := NewContext(&fakeStore{}, testLogger())

	var observed Session
	c.Subscribe(func(Session) {
		// Reading back through the context must not deadlock.
		observed = c.Current()
	})

	if err := c.SetAuth(mustAuthenticated(t, "T1", User{ID: 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !observed.IsAuthenticated() {
		t.Error("expected subscriber to observe the committed session")
	}
}
