package keystore

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mealsfit/mealsfit-cli/internal/domain/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "credentials.json"), testLogger())
}

func TestLoadMissingFileMeansNoSession(t *testing.T) {
	s := testStore(t)

	creds, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Token != "" || len(creds.User) != 0 {
		t.Errorf("expected zero credentials, got %+v", creds)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	want := session.Credentials{
		Token: "T1",
		User:  json.RawMessage(`{"id":1,"name":"A","email":"a@b.com"}`),
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Token != want.Token {
		t.Errorf("expected token %q, got %q", want.Token, got.Token)
	}
	var u session.User
	if err := json.Unmarshal(got.User, &u); err != nil {
		t.Fatalf("stored user record does not parse: %v", err)
	}
	if u.ID != 1 || u.Email != "a@b.com" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestSaveOverwritesPreviousPair(t *testing.T) {
	s := testStore(t)

	first := session.Credentials{Token: "T1", User: json.RawMessage(`{"id":1}`)}
	second := session.Credentials{Token: "T2", User: json.RawMessage(`{"id":2}`)}
	if err := s.Save(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Save(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Token != "T2" {
		t.Errorf("expected last committed token T2, got %q", got.Token)
	}
}

func TestClearRemovesFile(t *testing.T) {
	s := testStore(t)

	if err := s.Save(session.Credentials{Token: "T1", User: json.RawMessage(`{"id":1}`)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Exists() {
		t.Error("expected credentials file to be removed")
	}
	creds, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Token != "" {
		t.Errorf("expected no session after clear, got token %q", creds.Token)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s := testStore(t)

	if err := s.Clear(); err != nil {
		t.Fatalf("expected clearing an empty store to succeed, got %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("expected repeated clear to succeed, got %v", err)
	}
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	s := testStore(t)

	if err := os.WriteFile(s.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Load(); err == nil {
		t.Error("expected error for a corrupt credentials file")
	}
}

func TestSaveKeepsPrivatePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Unix permission bits not supported on Windows")
	}
	s := testStore(t)

	if err := s.Save(session.Credentials{Token: "T1", User: json.RawMessage(`{"id":1}`)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		t.Errorf("expected 0600 permissions, got %04o", mode)
	}
}

// TestColdStartRestore exercises the full durable round trip the way the
// app uses it: one context logs in, a fresh context hydrates from the same
// file and sees the last committed pair.
func TestColdStartRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	first := session.NewContext(NewFileStore(path, testLogger()), testLogger())
	sess, err := session.Authenticated("T1", session.User{ID: 1, Name: "A", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.SetAuth(sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := session.NewContext(NewFileStore(path, testLogger()), testLogger())
	second.Hydrate()

	token, ok := second.Current().Token()
	if !ok || token != "T1" {
		t.Errorf("expected restored token T1, got %q (ok=%v)", token, ok)
	}
	user, _ := second.Current().User()
	if user.Email != "a@b.com" {
		t.Errorf("unexpected restored user: %+v", user)
	}
}

// TestColdStartAfterLogout verifies the cleared pair stays cleared across a
// restart.
func TestColdStartAfterLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	first := session.NewContext(NewFileStore(path, testLogger()), testLogger())
	sess, err := session.Authenticated("T1", session.User{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.SetAuth(sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.Logout(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := session.NewContext(NewFileStore(path, testLogger()), testLogger())
	second.Hydrate()

	if second.Current().IsAuthenticated() {
		t.Error("expected anonymous session after logout and restart")
	}
}

// TestColdStartCorruptFile verifies hydration tolerates a corrupted file.
func TestColdStartCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("]["), 0600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := session.NewContext(NewFileStore(path, testLogger()), testLogger())
	c.Hydrate()

	if !c.Hydrated() {
		t.Error("expected context to hydrate despite corrupt file")
	}
	if c.Current().IsAuthenticated() {
		t.Error("expected anonymous session from corrupt file")
	}
}
