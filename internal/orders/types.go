package orders

import "time"

// Order statuses
const (
	StatusPending         = "PENDING"
	StatusAwaitingPayment = "AWAITING_PAYMENT"
	StatusPaid            = "PAID"
	StatusFulfilled       = "FULFILLED"
	StatusShipped         = "SHIPPED"
	StatusCancelled       = "CANCELLED"
)

// Item is one order line, snapshotted from the catalog at order-creation time
// so later product edits never change historical orders.
type Item struct {
	ProductID string `dynamodbav:"product_id" json:"product_id"`
	Name      string `dynamodbav:"name" json:"name"`
	UnitPrice int64  `dynamodbav:"unit_price" json:"unit_price"`
	Quantity  int    `dynamodbav:"quantity" json:"quantity"`
}

// Order represents the item stored in the orders DynamoDB table.
// All money fields are integer rupiah. ShippingCost is nil until an admin
// finalizes the order; until then Total is a placeholder.
type Order struct {
	OrderID       string    `dynamodbav:"order_id" json:"order_id"` // PK
	CustomerName  string    `dynamodbav:"customer_name" json:"customer_name"`
	CustomerEmail string    `dynamodbav:"customer_email" json:"customer_email"`
	CustomerPhone string    `dynamodbav:"customer_phone" json:"customer_phone"`
	Address       string    `dynamodbav:"address" json:"address"`
	DestinationID string    `dynamodbav:"destination_id,omitempty" json:"destination_id,omitempty"`
	Subtotal      int64     `dynamodbav:"subtotal" json:"subtotal"`
	ServiceFee    int64     `dynamodbav:"service_fee" json:"service_fee"`
	ShippingCost  *int64    `dynamodbav:"shipping_cost,omitempty" json:"shipping_cost,omitempty"`
	Total         int64     `dynamodbav:"total" json:"total"`
	Status        string    `dynamodbav:"status" json:"status"`
	PaymentToken  string    `dynamodbav:"payment_token,omitempty" json:"payment_token,omitempty"`
	Items         []Item    `dynamodbav:"items" json:"items"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at" json:"updated_at"`
}
