package payment

import (
	"fmt"

	"github.com/dapursari/storefront/internal/orders"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// Gateway wraps the Snap client. The returned token is opened client-side in
// the gateway's payment UI; settlement arrives later on the webhook.
type Gateway struct {
	client    snap.Client
	serverKey string
}

// NewGateway configures a Snap client for sandbox or production.
func NewGateway(serverKey string, production bool) *Gateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var c snap.Client
	c.New(serverKey, env)
	return &Gateway{client: c, serverKey: serverKey}
}

// ServerKey exposes the shared secret for webhook signature verification.
func (g *Gateway) ServerKey() string { return g.serverKey }

// CreateTransaction registers the order with the gateway and returns the
// transaction token plus the hosted payment page URL.
func (g *Gateway) CreateTransaction(o *orders.Order) (token, redirectURL string, err error) {
	items := make([]midtrans.ItemDetails, 0, len(o.Items)+2)
	for _, it := range o.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    it.ProductID,
			Name:  it.Name,
			Price: it.UnitPrice,
			Qty:   int32(it.Quantity),
		})
	}
	items = append(items, midtrans.ItemDetails{
		ID:    "service-fee",
		Name:  "Biaya layanan",
		Price: o.ServiceFee,
		Qty:   1,
	})
	if o.ShippingCost != nil {
		items = append(items, midtrans.ItemDetails{
			ID:    "shipping",
			Name:  "Ongkos kirim",
			Price: *o.ShippingCost,
			Qty:   1,
		})
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  o.OrderID,
			GrossAmt: o.Total,
		},
		Items: &items,
		CustomerDetail: &midtrans.CustomerDetails{
			FName: o.CustomerName,
			Email: o.CustomerEmail,
			Phone: o.CustomerPhone,
		},
	}

	resp, snapErr := g.client.CreateTransaction(req)
	if snapErr != nil {
		return "", "", fmt.Errorf("snap create transaction: %w", snapErr)
	}
	return resp.Token, resp.RedirectURL, nil
}
