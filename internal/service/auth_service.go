// Package service implements the feature flows on top of the API Gateway:
// authentication, recipes, and the ingredient catalog.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mealsfit/mealsfit-cli/internal/adapter/outbound/api"
	"github.com/mealsfit/mealsfit-cli/internal/domain/session"
)

// AuthService implements the login, registration, and logout flows. It is
// the only component that mutates the session context; the Gateway itself
// never does.
type AuthService struct {
	gw       *api.Client
	sessions *session.Context
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuthService creates an AuthService using the given Gateway and session
// context.
func NewAuthService(gw *api.Client, sessions *session.Context, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		gw:       gw,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// RegisterInput is the account creation payload. Validation mirrors what
// the backend enforces so obvious mistakes fail before the round trip.
type RegisterInput struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// loginResponse is the body of a successful POST /auth/login.
type loginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Login submits credentials, stores the issued token/user pair in the
// session context, and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, email, password string) (session.User, error) {
	var resp loginResponse
	payload := map[string]string{"email": email, "password": password}
	if err := s.gw.Do(ctx, http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return session.User{}, err
	}

	sess, err := session.Authenticated(resp.Token, resp.User)
	if err != nil {
		return session.User{}, fmt.Errorf("login response carried no token: %w", err)
	}
	if err := s.sessions.SetAuth(sess); err != nil {
		return session.User{}, err
	}

	s.logger.Debug("logged in", "user_id", resp.User.ID, "email", resp.User.Email)
	return resp.User, nil
}

// Register creates a new account. The session is not touched; the caller
// signs in afterwards.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("invalid registration input: %w", err)
	}
	return s.gw.Do(ctx, http.MethodPost, "/register", in, nil)
}

// Me fetches the identity record for the current token.
func (s *AuthService) Me(ctx context.Context) (session.User, error) {
	var u session.User
	if err := s.gw.Do(ctx, http.MethodGet, "/user", nil, &u); err != nil {
		return session.User{}, err
	}
	return u, nil
}

// Logout notifies the backend best-effort and then unconditionally clears
// the local session. Remote revocation is at-most-once: an expired token or
// an offline device must not keep the local session alive, so the remote
// failure is discarded.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.gw.Do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		s.logger.Debug("remote logout failed, clearing local session anyway", "error", err)
	}
	return s.sessions.Logout()
}
