package auth

import "time"

// Throttle policy. Source defaults, kept as-is.
const (
	MaxFailures     = 5
	LockoutDuration = 15 * time.Minute
	CooldownWindow  = 10 * time.Minute
	SessionTTL      = 24 * time.Hour
)

// Admin is one back-office credential record.
type Admin struct {
	Email        string    `dynamodbav:"email"` // PK, lowercase
	Name         string    `dynamodbav:"name,omitempty"`
	PasswordHash string    `dynamodbav:"password_hash"` // bcrypt
	CreatedAt    time.Time `dynamodbav:"created_at"`
}

// LoginAttempt is the per-email failure counter. Created on the first failed
// login, reset on success, counter treated as stale after CooldownWindow.
type LoginAttempt struct {
	Email         string     `dynamodbav:"email"` // PK, lowercase
	FailedCount   int        `dynamodbav:"failed_count"`
	LastAttemptAt time.Time  `dynamodbav:"last_attempt_at"`
	LockedUntil   *time.Time `dynamodbav:"locked_until,omitempty"`
}

// Session is an issued admin session token with a TTL epoch attribute so
// DynamoDB expires it on its own.
type Session struct {
	Token     string    `dynamodbav:"token"` // PK
	Email     string    `dynamodbav:"email"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}
