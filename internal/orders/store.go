package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dapursari/storefront/internal/aws"
)

// ErrNotFound indicates the order id does not exist.
var ErrNotFound = errors.New("order not found")

// ErrNotPending indicates a finalize on an order that already left PENDING.
var ErrNotPending = errors.New("order is not pending")

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new order. The caller sets OrderID; timestamps are
// stamped here. Fails if the id already exists.
func (s *Store) Create(ctx context.Context, order *Order) error {
	now := s.nowFunc()
	order.CreatedAt = now
	order.UpdatedAt = now

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// List returns orders newest-first, optionally filtered by status, with
// skip/take pagination. The second return value is the total matching count
// before pagination. Back-office scale; a full table scan is acceptable here.
func (s *Store) List(ctx context.Context, status string, skip, take int) ([]Order, int, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := all[:0]
	for _, o := range all {
		if status == "" || o.Status == status {
			filtered = append(filtered, o)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	if skip >= total {
		return []Order{}, total, nil
	}
	end := skip + take
	if take <= 0 || end > total {
		end = total
	}
	return filtered[skip:end], total, nil
}

// Transition moves an order to target if the transition table allows it.
// The write is conditioned on the status still being the one we read, so a
// concurrent change surfaces as an InvalidTransitionError instead of a lost
// update.
func (s *Store) Transition(ctx context.Context, orderID, target string) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNotFound
	}
	if !CanTransition(order.Status, target) {
		return &InvalidTransitionError{From: order.Status, To: target}
	}
	return s.guardedStatusUpdate(ctx, orderID, order.Status, target)
}

// ApplyPaymentStatus applies a webhook-mapped status. Settlement/capture may
// move PENDING directly to PAID, bypassing AWAITING_PAYMENT, for
// instant-capture payment methods; everything else follows the table.
// A notification that matches the current status is a no-op.
func (s *Store) ApplyPaymentStatus(ctx context.Context, orderID, target string) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNotFound
	}
	if order.Status == target {
		return nil
	}
	directCapture := order.Status == StatusPending && target == StatusPaid
	if !directCapture && !CanTransition(order.Status, target) {
		return &InvalidTransitionError{From: order.Status, To: target}
	}
	return s.guardedStatusUpdate(ctx, orderID, order.Status, target)
}

func (s *Store) guardedStatusUpdate(ctx context.Context, orderID, from, to string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: to},
			":expected": &types.AttributeValueMemberS{Value: from},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#s = :expected"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return &InvalidTransitionError{From: from, To: to}
		}
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// Finalize sets the shipping cost on a PENDING order and recomputes
// total = subtotal + service fee + cost. Calling it again replaces the cost
// and total; nothing accumulates. The status is left untouched.
func (s *Store) Finalize(ctx context.Context, orderID string, shippingCost int64) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if order.Status != StatusPending {
		return nil, ErrNotPending
	}

	total := order.Subtotal + order.ServiceFee + shippingCost
	now := s.nowFunc()
	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET shipping_cost = :sc, #t = :total, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#t": "total", "#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sc":      &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", shippingCost)},
			":total":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", total)},
			":pending": &types.AttributeValueMemberS{Value: StatusPending},
			":ua":      &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#s = :pending"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("finalize order: %w", err)
	}

	order.ShippingCost = &shippingCost
	order.Total = total
	order.UpdatedAt = now
	return order, nil
}

// AttachPaymentToken stores the gateway token issued for this order.
func (s *Store) AttachPaymentToken(ctx context.Context, orderID, token string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET payment_token = :tok, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tok": &types.AttributeValueMemberS{Value: token},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrNotFound
		}
		return fmt.Errorf("attach payment token: %w", err)
	}
	return nil
}

// Delete removes an order outright (explicit admin deletion).
func (s *Store) Delete(ctx context.Context, orderID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// DeleteStalePending removes PENDING orders created before cutoff and
// returns how many were deleted. Used by the cleanup sweep.
func (s *Store) DeleteStalePending(ctx context.Context, cutoff time.Time) (int, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, o := range all {
		if o.Status != StatusPending || !o.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, o.OrderID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *Store) scanAll(ctx context.Context) ([]Order, error) {
	var out []Order
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		for _, item := range resp.Items {
			var o Order
			if err := attributevalue.UnmarshalMap(item, &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			out = append(out, o)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

func awsString(s string) *string { return &s }
