package validation

// CheckoutItem is a single line in a checkout request. Prices are never
// accepted from the client; the server snapshots them from the catalog.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CheckoutRequest is the payload for POST /api/orders.
type CheckoutRequest struct {
	CustomerName  string         `json:"customer_name" validate:"required"`
	CustomerEmail string         `json:"customer_email" validate:"required,email"`
	CustomerPhone string         `json:"customer_phone" validate:"required"`
	Address       string         `json:"address" validate:"required"`
	DestinationID string         `json:"destination_id" validate:"required"` // courier city id
	Items         []CheckoutItem `json:"items" validate:"required,min=1,dive"`
}

// LoginRequest is the payload for POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TransitionRequest is the payload for POST /api/admin/orders/:id/status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// FinalizeRequest is the payload for POST /api/admin/orders/:id/finalize.
type FinalizeRequest struct {
	ShippingCost int64 `json:"shipping_cost" validate:"required,gt=0"`
}

// ProductRequest is the payload for admin product create/update.
type ProductRequest struct {
	Name   string `json:"name" validate:"required"`
	Price  int64  `json:"price" validate:"required,gt=0"`
	Weight string `json:"weight" validate:"required"` // free text, embedded grams
}

// EstimateRequest is the payload for POST /api/shipping/estimate.
type EstimateRequest struct {
	DestinationID string         `json:"destination_id" validate:"required"`
	Items         []CheckoutItem `json:"items" validate:"required,min=1,dive"`
}
