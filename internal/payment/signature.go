package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"github.com/dapursari/storefront/internal/orders"
)

// VerifySignature checks the gateway notification signature: the hex SHA-512
// digest of order_id + status_code + gross_amount + server key. Compared in
// constant time.
func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// MapTransactionStatus maps a gateway transaction_status to the order status
// it should produce. The empty string means the notification carries no
// status change (e.g. "pending").
func MapTransactionStatus(transactionStatus string) string {
	switch transactionStatus {
	case "capture", "settlement":
		return orders.StatusPaid
	case "expire", "deny", "cancel":
		return orders.StatusCancelled
	default:
		return ""
	}
}
