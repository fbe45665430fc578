package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/dapursari/storefront/internal/aws"
	"github.com/dapursari/storefront/internal/mail"
)

// emailSender is the sender surface the processor needs; satisfied by
// *mail.Sender and by test fakes.
type emailSender interface {
	Send(ctx context.Context, to, subject, body, orderID string) (*mail.EmailLog, error)
}

// Processor consumes email jobs from the queue and drives the mail sender.
type Processor struct {
	sender emailSender
}

// NewProcessor creates a mailer processor.
func NewProcessor(sender emailSender) *Processor {
	return &Processor{sender: sender}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, the
			// message goes to the DLQ.
			log.Printf("mailer error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var job aws.EmailJob
	if err := json.Unmarshal([]byte(rec.Body), &job); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[mailer] sending to=%s subject=%q order=%s", job.To, job.Subject, job.OrderID)

	_, err := p.sender.Send(ctx, job.To, job.Subject, job.Body, job.OrderID)
	if errors.Is(err, mail.ErrSendCapExceeded) {
		// logged FAILED already; the retry sweep picks it up after the
		// window passes, so the queue message is done
		log.Printf("[mailer] capped to=%s order=%s", job.To, job.OrderID)
		return nil
	}
	if err != nil {
		// transport failure is recorded in the email log; swallow the
		// message so a broken recipient does not wedge the queue
		log.Printf("[mailer] send failed to=%s order=%s: %v", job.To, job.OrderID, err)
		return nil
	}

	log.Printf("[mailer] sent to=%s order=%s", job.To, job.OrderID)
	return nil
}
