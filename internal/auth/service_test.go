package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dapursari/storefront/internal/dynamotest"
)

const (
	adminsTable   = "admins"
	attemptsTable = "login-attempts"
	sessionsTable = "sessions"

	testEmail    = "admin@dapursari.com"
	testPassword = "rahasia-dapur"
)

func newTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	fake := dynamotest.NewFake()
	fake.CreateTable(adminsTable, "email")
	fake.CreateTable(attemptsTable, "email")
	fake.CreateTable(sessionsTable, "token")

	store := NewStore(fake, adminsTable, attemptsTable, sessionsTable)
	svc := NewService(store)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := store.CreateAdmin(context.Background(), &Admin{
		Email:        testEmail,
		Name:         "Dapur Sari",
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return svc, store
}

func setClock(svc *Service, store *Store, at time.Time) {
	svc.nowFunc = func() time.Time { return at }
	store.nowFunc = func() time.Time { return at }
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newTestService(t)

	admin, sess, err := svc.Login(context.Background(), "Admin@Dapursari.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if admin.Email != testEmail {
		t.Fatalf("email = %s", admin.Email)
	}
	if sess.Token == "" {
		t.Fatal("expected a session token")
	}
}

func TestFourFailuresLeaveAccountUsable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, err := svc.Login(ctx, testEmail, "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	if _, _, err := svc.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("correct password after 4 failures: %v", err)
	}
}

func TestFifthFailureLocksOut(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	setClock(svc, store, start)

	for i := 0; i < 4; i++ {
		if _, _, err := svc.Login(ctx, testEmail, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, _, err := svc.Login(ctx, testEmail, "wrong"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("5th failure: expected ErrAccountLocked, got %v", err)
	}

	// the correct password is still rejected while the lockout holds
	if _, _, err := svc.Login(ctx, testEmail, testPassword); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("during lockout: expected ErrAccountLocked, got %v", err)
	}

	// after expiry the correct password works again
	setClock(svc, store, start.Add(LockoutDuration+time.Minute))
	if _, _, err := svc.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("after lockout expiry: %v", err)
	}
}

func TestSuccessResetsCounter(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Login(ctx, testEmail, "wrong")
	}
	if _, _, err := svc.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	attempt, err := store.GetAttempt(ctx, testEmail)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if attempt.FailedCount != 0 {
		t.Fatalf("failed count = %d, want 0", attempt.FailedCount)
	}

	// a fresh streak counts from zero: four more failures still leave the
	// account usable
	for i := 0; i < 4; i++ {
		if _, _, err := svc.Login(ctx, testEmail, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, _, err := svc.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("correct password: %v", err)
	}
}

func TestCooldownResetsStaleCounter(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	setClock(svc, store, start)

	for i := 0; i < 4; i++ {
		svc.Login(ctx, testEmail, "wrong")
	}

	// cooldown elapses; the stale streak restarts at 1, so this 5th wrong
	// password does not lock the account
	setClock(svc, store, start.Add(CooldownWindow+time.Minute))
	if _, _, err := svc.Login(ctx, testEmail, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after cooldown, got %v", err)
	}

	attempt, _ := store.GetAttempt(ctx, testEmail)
	if attempt.FailedCount != 1 {
		t.Fatalf("failed count = %d, want 1 after cooldown reset", attempt.FailedCount)
	}
}

func TestUnknownEmailSharesFailurePath(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, unknownErr := svc.Login(ctx, "nobody@dapursari.com", "whatever")
	_, _, wrongErr := svc.Login(ctx, testEmail, "wrong")
	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("both branches must fail identically, got %v / %v", unknownErr, wrongErr)
	}

	// an unknown email accumulates a throttle record too and locks out
	for i := 0; i < 4; i++ {
		svc.Login(ctx, "nobody@dapursari.com", "whatever")
	}
	if _, _, err := svc.Login(ctx, "nobody@dapursari.com", "whatever"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked for hammered unknown email, got %v", err)
	}
}

func TestSessionAuthenticate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	setClock(svc, store, start)

	_, sess, err := svc.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	email, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if email != testEmail {
		t.Fatalf("email = %s", email)
	}

	if email, _ := svc.Authenticate(ctx, "bogus-token"); email != "" {
		t.Fatal("bogus token must not authenticate")
	}

	// expired session
	setClock(svc, store, start.Add(SessionTTL+time.Minute))
	if email, _ := svc.Authenticate(ctx, sess.Token); email != "" {
		t.Fatal("expired session must not authenticate")
	}
}
