package mail

import "time"

// Email log statuses
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

// Send policy
const (
	HourlySendCap  = 5  // max SENT per recipient per rolling hour
	MaxRetries     = 3  // retry ceiling for the sweep
	RetryBatchSize = 10 // oldest FAILED entries per sweep run
)

// EmailLog records one outbound email attempt. Updated in place as the
// attempt succeeds or fails; the retry sweep re-attempts FAILED entries.
type EmailLog struct {
	EmailID    string    `dynamodbav:"email_id" json:"email_id"` // PK
	Recipient  string    `dynamodbav:"recipient" json:"recipient"`
	Subject    string    `dynamodbav:"subject" json:"subject"`
	Body       string    `dynamodbav:"body" json:"body"`
	Status     string    `dynamodbav:"status" json:"status"`
	RetryCount int       `dynamodbav:"retry_count" json:"retry_count"`
	Error      string    `dynamodbav:"error,omitempty" json:"error,omitempty"`
	OrderID    string    `dynamodbav:"order_id,omitempty" json:"order_id,omitempty"`
	CreatedAt  time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at" json:"updated_at"`
}
