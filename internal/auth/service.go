package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrAccountLocked means the throttle is in a lockout window. ErrInvalidCredentials
// covers both unknown email and wrong password. Handlers must present the two
// identically to the caller so failures never reveal which branch was taken.
var (
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service runs the credential check behind the login throttle.
type Service struct {
	store   *Store
	nowFunc func() time.Time
}

// NewService returns a Service over the auth store.
func NewService(store *Store) *Service {
	return &Service{store: store, nowFunc: time.Now}
}

// Login authorizes an email/password pair and issues a session on success.
//
// Order of checks: active lockout first (no password comparison while
// locked), then cooldown staleness (an old failure streak restarts at zero),
// then the bcrypt comparison. Unknown email and wrong password share one
// failure path.
func (s *Service) Login(ctx context.Context, email, password string) (*Admin, *Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := s.nowFunc()

	attempt, err := s.store.GetAttempt(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("load throttle record: %w", err)
	}
	if attempt != nil && attempt.LockedUntil != nil && attempt.LockedUntil.After(now) {
		return nil, nil, ErrAccountLocked
	}
	stale := attempt != nil && now.Sub(attempt.LastAttemptAt) > CooldownWindow

	admin, err := s.store.GetAdmin(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("load admin: %w", err)
	}

	matched := false
	if admin != nil {
		matched = bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil
	}

	if !matched {
		count, err := s.store.RegisterFailure(ctx, email, stale)
		if err != nil {
			return nil, nil, fmt.Errorf("register failure: %w", err)
		}
		if count >= MaxFailures {
			if err := s.store.SetLockout(ctx, email, now.Add(LockoutDuration)); err != nil {
				return nil, nil, fmt.Errorf("set lockout: %w", err)
			}
			return nil, nil, ErrAccountLocked
		}
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.store.ResetAttempts(ctx, email); err != nil {
		return nil, nil, fmt.Errorf("reset attempts: %w", err)
	}
	sess, err := s.store.CreateSession(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	return admin, sess, nil
}

// Authenticate resolves a bearer session token to its admin email.
// Returns "" when the token is unknown or expired.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	sess, err := s.store.GetSession(ctx, token)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", nil
	}
	return sess.Email, nil
}

// HashPassword produces a bcrypt hash for seeding admin accounts.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
