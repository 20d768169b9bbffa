// Package session is the single source of truth for "who is logged in".
// It pairs a bearer token with the identity it authenticates, persists the
// pair durably so a cold start can restore it, and notifies subscribers
// synchronously when the authentication state changes.
package session

import (
	"encoding/json"
	"errors"
)

// ErrEmptyToken is returned when constructing an authenticated session
// without a bearer token.
var ErrEmptyToken = errors.New("empty bearer token")

// User is the identity record issued by the backend.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the authentication state at a point in time. It has exactly two
// shapes: anonymous, or authenticated with both a bearer token and the user
// the token belongs to. Token and user cannot be set independently, so a
// half-populated session is unrepresentable. The zero value is anonymous.
type Session struct {
	token         string
	user          User
	authenticated bool
}

// Anonymous returns the logged-out session.
func Anonymous() Session {
	return Session{}
}

// Authenticated returns a logged-in session holding the token/user pair.
func Authenticated(token string, user User) (Session, error) {
	if token == "" {
		return Session{}, ErrEmptyToken
	}
	return Session{token: token, user: user, authenticated: true}, nil
}

// IsAuthenticated reports whether the session holds credentials.
func (s Session) IsAuthenticated() bool {
	return s.authenticated
}

// Token returns the bearer token. The second return is false for an
// anonymous session.
func (s Session) Token() (string, bool) {
	return s.token, s.authenticated
}

// User returns the authenticated identity. The second return is false for
// an anonymous session.
func (s Session) User() (User, bool) {
	return s.user, s.authenticated
}

// Credentials is the durable serialized form of a session. The user record
// is kept as raw JSON so the parsing (and its tolerance for malformed data)
// stays in this package rather than in the persistence adapter.
type Credentials struct {
	// Token is the opaque bearer credential. Empty means no session.
	Token string `json:"auth_token,omitempty"`

	// User is the JSON-serialized identity record.
	User json.RawMessage `json:"auth_user,omitempty"`
}

// credentials converts a session to its durable form. Anonymous sessions
// serialize to the zero Credentials value.
func (s Session) credentials() Credentials {
	if !s.authenticated {
		return Credentials{}
	}
	raw, err := json.Marshal(s.user)
	if err != nil {
		// User is a plain struct of scalars; Marshal cannot fail on it.
		raw = nil
	}
	return Credentials{Token: s.token, User: raw}
}

// fromCredentials restores a session from its durable form. A missing token,
// a missing user record, or a user record that does not parse all degrade to
// the anonymous session, never to an error. The second return is false when
// the stored data was present but unusable.
func fromCredentials(c Credentials) (Session, bool) {
	if c.Token == "" && len(c.User) == 0 {
		return Anonymous(), true
	}
	if c.Token == "" || len(c.User) == 0 {
		return Anonymous(), false
	}
	var u User
	if err := json.Unmarshal(c.User, &u); err != nil {
		return Anonymous(), false
	}
	s, err := Authenticated(c.Token, u)
	if err != nil {
		return Anonymous(), false
	}
	return s, true
}

// CredentialStore is the durable backing for a session context. Absence of
// stored credentials is represented by the zero Credentials value, not an
// error.
type CredentialStore interface {
	// Load reads the stored credentials. A store with nothing persisted
	// returns the zero value and a nil error.
	Load() (Credentials, error)

	// Save persists the credentials, replacing any previous pair.
	Save(Credentials) error

	// Clear removes the stored credentials. Clearing an empty store is not
	// an error.
	Clear() error
}
