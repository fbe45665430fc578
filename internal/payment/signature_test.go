package payment

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/dapursari/storefront/internal/orders"
)

func sign(orderID, statusCode, grossAmount, key string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + key))
	return hex.EncodeToString(sum[:])
}

func TestVerifySignature(t *testing.T) {
	const key = "server-key-123"
	sig := sign("order-1", "200", "90000.00", key)

	if !VerifySignature("order-1", "200", "90000.00", key, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature("order-1", "200", "90000.00", key, "deadbeef") {
		t.Fatal("garbage signature accepted")
	}
	if VerifySignature("order-2", "200", "90000.00", key, sig) {
		t.Fatal("signature for another order accepted")
	}
	if VerifySignature("order-1", "200", "90000.00", "other-key", sig) {
		t.Fatal("signature verified against wrong key")
	}
}

func TestMapTransactionStatus(t *testing.T) {
	cases := map[string]string{
		"capture":    orders.StatusPaid,
		"settlement": orders.StatusPaid,
		"expire":     orders.StatusCancelled,
		"deny":       orders.StatusCancelled,
		"cancel":     orders.StatusCancelled,
		"pending":    "",
		"refund":     "",
	}
	for in, want := range cases {
		if got := MapTransactionStatus(in); got != want {
			t.Errorf("MapTransactionStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
