package mail

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dapursari/storefront/internal/aws"
	"github.com/google/uuid"
)

// Store encapsulates operations on the email-log table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new email-log Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create writes a fresh log entry in PENDING and returns it.
func (s *Store) Create(ctx context.Context, recipient, subject, body, orderID string) (*EmailLog, error) {
	now := s.nowFunc()
	entry := &EmailLog{
		EmailID:   uuid.NewString(),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    StatusPending,
		OrderID:   orderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal email log: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(email_id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("put email log: %w", err)
	}
	return entry, nil
}

// MarkSent flips an entry to SENT and clears any prior error text.
func (s *Store) MarkSent(ctx context.Context, emailID string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"email_id": &types.AttributeValueMemberS{Value: emailID},
		},
		UpdateExpression:         awsString("SET #s = :sent, updated_at = :ua REMOVE #e"),
		ExpressionAttributeNames: map[string]string{"#s": "status", "#e": "error"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sent": &types.AttributeValueMemberS{Value: StatusSent},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// MarkFailed flips an entry to FAILED with the transport error text.
func (s *Store) MarkFailed(ctx context.Context, emailID, errText string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"email_id": &types.AttributeValueMemberS{Value: emailID},
		},
		UpdateExpression:         awsString("SET #s = :failed, #e = :err, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status", "#e": "error"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: StatusFailed},
			":err":    &types.AttributeValueMemberS{Value: errText},
			":ua":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// IncrementRetry bumps the retry counter ahead of a re-attempt. Atomic ADD,
// same idiom as the login-throttle counter.
func (s *Store) IncrementRetry(ctx context.Context, emailID string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"email_id": &types.AttributeValueMemberS{Value: emailID},
		},
		UpdateExpression: awsString("SET updated_at = :ua ADD retry_count :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("increment retry: %w", err)
	}
	return nil
}

// CountSentSince counts SENT entries for a recipient created after the cutoff.
func (s *Store) CountSentSince(ctx context.Context, recipient string, cutoff time.Time) (int, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range all {
		if e.Recipient == recipient && e.Status == StatusSent && e.CreatedAt.After(cutoff) {
			n++
		}
	}
	return n, nil
}

// ListFailedForRetry returns up to RetryBatchSize oldest FAILED entries whose
// retry count is still under MaxRetries.
func (s *Store) ListFailedForRetry(ctx context.Context) ([]EmailLog, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	var candidates []EmailLog
	for _, e := range all {
		if e.Status == StatusFailed && e.RetryCount < MaxRetries {
			candidates = append(candidates, e)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	if len(candidates) > RetryBatchSize {
		candidates = candidates[:RetryBatchSize]
	}
	return candidates, nil
}

// List returns log entries newest-first with skip/take pagination for the
// admin back-office; the second return value is the total count.
func (s *Store) List(ctx context.Context, skip, take int) ([]EmailLog, int, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if skip >= total {
		return []EmailLog{}, total, nil
	}
	end := skip + take
	if take <= 0 || end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (s *Store) scanAll(ctx context.Context) ([]EmailLog, error) {
	var out []EmailLog
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		for _, item := range resp.Items {
			var e EmailLog
			if err := attributevalue.UnmarshalMap(item, &e); err != nil {
				return nil, fmt.Errorf("unmarshal email log: %w", err)
			}
			out = append(out, e)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

func awsString(s string) *string { return &s }
