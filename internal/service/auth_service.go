package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/repository"
	"catalog-service/pkg/session"
	"catalog-service/prometheus"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordLength is the bcrypt input limit
const maxPasswordLength = 72

// Login is the result of a successful sign-in
type Login struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService registers admins, opens and closes sessions, and resolves the
// current user from a session token.
type AuthService struct {
	users    repository.UserRepository
	sessions session.Store
	tokens   *session.TokenManager
	ttl      time.Duration
	metrics  *prometheus.Metrics
	now      func() time.Time
}

// NewAuthService creates an AuthService
func NewAuthService(users repository.UserRepository, sessions session.Store, tokens *session.TokenManager, ttl time.Duration, metrics *prometheus.Metrics) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		metrics:  metrics,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a bcrypt password hash
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validation("Email and password are required")
	}
	// ParseAddress also accepts display-name forms such as "Bob <a@b.com>"
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, validation("Email address is invalid")
	}
	if len(password) > maxPasswordLength {
		return nil, validation("Password is too long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, storeFailure("Failed to register user", err)
	}

	user := &model.User{Email: email, PasswordHash: string(hash)}
	defer s.metrics.TrackDBOperation("insert")(time.Now())
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation("User already exists")
		}
		return nil, storeFailure("Failed to register user", err)
	}
	return user, nil
}

// Login checks credentials and opens a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*Login, error) {
	s.metrics.RecordLoginAttempt()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.RecordAuthError("invalid_request")
		return nil, validation("Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordAuthError("user_not_found")
		return nil, newError(ErrUnauthorized, "Invalid credentials", nil)
	}
	if err != nil {
		return nil, storeFailure("Failed to sign in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.RecordAuthError("invalid_password")
		return nil, newError(ErrUnauthorized, "Invalid credentials", nil)
	}

	now := s.now()
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, storeFailure("Failed to sign in", err)
	}

	token, err := s.tokens.Issue(user.ID, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		return nil, storeFailure("Failed to sign in", err)
	}

	s.metrics.RecordLoginSuccess()
	return &Login{User: user, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout revokes the session behind token. Unknown or invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID()); err != nil {
		return storeFailure("Failed to sign out", err)
	}
	s.metrics.RecordLogout()
	return nil
}

// ResolveCurrentUser returns the user behind token, or nil when there is none
func (s *AuthService) ResolveCurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.metrics.RecordAuthError("invalid_token")
		return nil, nil
	}

	sess, err := s.sessions.Lookup(ctx, claims.SessionID())
	if errors.Is(err, session.ErrNotFound) {
		s.metrics.RecordAuthError("session_inactive")
		return nil, nil
	}
	if err != nil {
		return nil, storeFailure("Failed to resolve session", err)
	}
	if sess.UserID != claims.UserID {
		s.metrics.RecordAuthError("session_mismatch")
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeFailure("Failed to resolve session", err)
	}
	return user, nil
}

// RequireUser is ResolveCurrentUser that fails closed
func (s *AuthService) RequireUser(ctx context.Context, token string) (*model.User, error) {
	user, err := s.ResolveCurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}
