package account

import (
	"context"
	"strings"
	"time"

	"mediguru/internal/apperr"
	"mediguru/internal/auth"
	"mediguru/internal/validate"
)

// Store is the persistence the login flow needs.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	TouchLogin(ctx context.Context, id int64) error
}

// Session is the result of a successful login.
type Session struct {
	User      User
	Tokens    auth.TokenPair
	LastLogin time.Time
}

// Service authenticates administrators and issues tokens.
type Service struct {
	store      Store
	issuer     string
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store, issuer, signingKey string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		store:      store,
		issuer:     issuer,
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Login checks credentials and returns a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return Session{}, apperr.Validation("Email and password are required")
	}
	if !validate.Email(email) {
		return Session{}, apperr.Validation("Invalid email format")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, apperr.Storage("Database error", err)
	}
	if user == nil {
		return Session{}, apperr.Auth("User not found")
	}
	if !auth.CheckPassword(user.Password, password) {
		return Session{}, apperr.Auth("Invalid password")
	}

	tokens, err := auth.Issue(auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, s.issuer, s.signingKey, s.accessTTL, s.refreshTTL)
	if err != nil {
		return Session{}, apperr.Storage("Token issue failed", err)
	}
	if err := s.store.TouchLogin(ctx, user.ID); err != nil {
		return Session{}, apperr.Storage("Database error", err)
	}
	return Session{User: *user, Tokens: tokens, LastLogin: s.now().UTC()}, nil
}
