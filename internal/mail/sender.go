package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/dapursari/storefront/internal/aws"
)

// ErrSendCapExceeded indicates the per-recipient hourly cap was hit; the
// entry is logged FAILED without any transport attempt.
var ErrSendCapExceeded = errors.New("hourly send cap exceeded")

// Sender writes the email log and drives the SES transport behind it.
type Sender struct {
	store   *Store
	ses     aws.SESAPI
	from    string
	nowFunc func() time.Time
}

// NewSender returns a Sender using the given log store and transport.
func NewSender(store *Store, ses aws.SESAPI, from string) *Sender {
	return &Sender{
		store:   store,
		ses:     ses,
		from:    from,
		nowFunc: time.Now,
	}
}

// Send logs and delivers one email. The hourly cap is checked before any
// transport call; a capped send is recorded FAILED so the retry sweep can
// pick it up once the window has passed.
func (s *Sender) Send(ctx context.Context, to, subject, body, orderID string) (*EmailLog, error) {
	now := s.nowFunc()
	sent, err := s.store.CountSentSince(ctx, to, now.Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count recent sends: %w", err)
	}

	entry, err := s.store.Create(ctx, to, subject, body, orderID)
	if err != nil {
		return nil, err
	}

	if sent >= HourlySendCap {
		if err := s.store.MarkFailed(ctx, entry.EmailID, ErrSendCapExceeded.Error()); err != nil {
			return entry, err
		}
		entry.Status = StatusFailed
		entry.Error = ErrSendCapExceeded.Error()
		return entry, ErrSendCapExceeded
	}

	if err := s.deliver(ctx, to, subject, body); err != nil {
		log.Printf("mail transport failed to=%s subject=%q: %v", to, subject, err)
		if merr := s.store.MarkFailed(ctx, entry.EmailID, err.Error()); merr != nil {
			return entry, merr
		}
		entry.Status = StatusFailed
		entry.Error = err.Error()
		return entry, fmt.Errorf("deliver email: %w", err)
	}

	if err := s.store.MarkSent(ctx, entry.EmailID); err != nil {
		return entry, err
	}
	entry.Status = StatusSent
	return entry, nil
}

// RetryFailed re-attempts up to RetryBatchSize oldest FAILED entries under
// the retry ceiling. Returns how many were attempted and how many went out.
func (s *Sender) RetryFailed(ctx context.Context) (attempted, delivered int, err error) {
	batch, err := s.store.ListFailedForRetry(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range batch {
		attempted++
		if err := s.store.IncrementRetry(ctx, entry.EmailID); err != nil {
			return attempted, delivered, err
		}
		if err := s.deliver(ctx, entry.Recipient, entry.Subject, entry.Body); err != nil {
			log.Printf("mail retry failed id=%s to=%s: %v", entry.EmailID, entry.Recipient, err)
			if merr := s.store.MarkFailed(ctx, entry.EmailID, err.Error()); merr != nil {
				return attempted, delivered, merr
			}
			continue
		}
		if err := s.store.MarkSent(ctx, entry.EmailID); err != nil {
			return attempted, delivered, err
		}
		delivered++
	}
	return attempted, delivered, nil
}

func (s *Sender) deliver(ctx context.Context, to, subject, body string) error {
	_, err := s.ses.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: sdkaws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: sdkaws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: sdkaws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
