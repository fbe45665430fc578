package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/dapursari/storefront/internal/aws"
	"github.com/google/uuid"
)

// ErrAdminExists indicates a create collided with an existing email.
var ErrAdminExists = errors.New("admin already exists")

// Store encapsulates the admins, login-attempts and sessions tables.
type Store struct {
	client        aws.DynamoDBAPI
	adminsTable   string
	attemptsTable string
	sessionsTable string
	nowFunc       func() time.Time
}

// NewStore returns a configured auth Store.
func NewStore(client aws.DynamoDBAPI, adminsTable, attemptsTable, sessionsTable string) *Store {
	return &Store{
		client:        client,
		adminsTable:   adminsTable,
		attemptsTable: attemptsTable,
		sessionsTable: sessionsTable,
		nowFunc:       time.Now,
	}
}

// GetAdmin fetches an admin by lowercase email. Returns (nil, nil) if not found.
func (s *Store) GetAdmin(ctx context.Context, email string) (*Admin, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.adminsTable,
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var a Admin
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal admin: %w", err)
	}
	return &a, nil
}

// CreateAdmin persists a new admin credential record.
func (s *Store) CreateAdmin(ctx context.Context, a *Admin) error {
	a.CreatedAt = s.nowFunc()
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal admin: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.adminsTable,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(email)"),
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrAdminExists
		}
		return fmt.Errorf("put admin: %w", err)
	}
	return nil
}

// GetAttempt fetches the throttle record for an email. Returns (nil, nil) if
// the email has never failed a login.
func (s *Store) GetAttempt(ctx context.Context, email string) (*LoginAttempt, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.attemptsTable,
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var la LoginAttempt
	if err := attributevalue.UnmarshalMap(out.Item, &la); err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return &la, nil
}

// RegisterFailure records one failed attempt and returns the new running
// count. The increment is a single atomic ADD so concurrent failures never
// under-count. When stale is true the counter restarts at 1 (the cooldown
// window elapsed since the last attempt).
func (s *Store) RegisterFailure(ctx context.Context, email string, stale bool) (int, error) {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.attemptsTable,
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
		ReturnValues: types.ReturnValueAllNew,
	}
	if stale {
		input.UpdateExpression = awsString("SET failed_count = :one, last_attempt_at = :ua REMOVE locked_until")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		}
	} else {
		input.UpdateExpression = awsString("SET last_attempt_at = :ua ADD failed_count :inc")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		}
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("register failure: %w", err)
	}
	var la LoginAttempt
	if err := attributevalue.UnmarshalMap(out.Attributes, &la); err != nil {
		return 0, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return la.FailedCount, nil
}

// SetLockout sets the lockout expiry after the failure ceiling is reached.
func (s *Store) SetLockout(ctx context.Context, email string, until time.Time) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.attemptsTable,
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression: awsString("SET locked_until = :lu"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lu": &types.AttributeValueMemberS{Value: until.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("set lockout: %w", err)
	}
	return nil
}

// ResetAttempts zeroes the counter and clears any lockout after a successful login.
func (s *Store) ResetAttempts(ctx context.Context, email string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.attemptsTable,
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression: awsString("SET failed_count = :zero, last_attempt_at = :ua REMOVE locked_until"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

// CreateSession issues a fresh session token for an admin.
func (s *Store) CreateSession(ctx context.Context, email string) (*Session, error) {
	now := s.nowFunc()
	sess := &Session{
		Token:     uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL).Unix(),
	}
	item, err := attributevalue.MarshalMap(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	// "token" is a DynamoDB reserved word
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.sessionsTable,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{
			"#t": "token",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("put session: %w", err)
	}
	return sess, nil
}

// GetSession fetches a session by token. Expired or missing sessions return
// (nil, nil); DynamoDB TTL deletion lags, so expiry is also checked here.
func (s *Store) GetSession(ctx context.Context, token string) (*Session, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.sessionsTable,
		Key: map[string]types.AttributeValue{
			"token": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var sess Session
	if err := attributevalue.UnmarshalMap(out.Item, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if sess.ExpiresAt <= s.nowFunc().Unix() {
		return nil, nil
	}
	return &sess, nil
}

func awsString(s string) *string { return &s }
