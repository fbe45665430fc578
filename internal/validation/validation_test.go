package validation

import (
	"testing"
)

func validCheckout() CheckoutRequest {
	return CheckoutRequest{
		CustomerName:  "Siti Rahma",
		CustomerEmail: "siti@example.com",
		CustomerPhone: "+628123456789",
		Address:       "Jl. Melati 5, Bandung",
		DestinationID: "114",
		Items: []CheckoutItem{
			{ProductID: "p-1", Quantity: 2},
			{ProductID: "p-2", Quantity: 1},
		},
	}
}

func TestCheckoutRequest_Valid(t *testing.T) {
	v := New()
	if err := v.Struct(validCheckout()); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCheckoutRequest_DuplicateProducts(t *testing.T) {
	v := New()
	req := validCheckout()
	req.Items = []CheckoutItem{
		{ProductID: "p-1", Quantity: 1},
		{ProductID: "p-1", Quantity: 2},
	}
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for duplicate product lines, got nil")
	}
}

func TestCheckoutRequest_MissingFields(t *testing.T) {
	v := New()
	req := CheckoutRequest{
		// customer fields missing
		Items: []CheckoutItem{},
	}
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation errors for missing required fields, got nil")
	}
}

func TestCheckoutRequest_BadEmailAndQuantity(t *testing.T) {
	v := New()
	req := validCheckout()
	req.CustomerEmail = "not-an-email"
	req.Items[0].Quantity = 0
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation errors, got nil")
	}
}

func TestEstimateRequest(t *testing.T) {
	v := New()
	req := EstimateRequest{
		DestinationID: "114",
		Items:         []CheckoutItem{{ProductID: "p-1", Quantity: 1}},
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	req.Items = append(req.Items, CheckoutItem{ProductID: "p-1", Quantity: 3})
	if err := v.Struct(req); err == nil {
		t.Fatal("expected duplicate-product error, got nil")
	}
}

func TestFinalizeRequest(t *testing.T) {
	v := New()
	if err := v.Struct(FinalizeRequest{ShippingCost: 20000}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := v.Struct(FinalizeRequest{ShippingCost: 0}); err == nil {
		t.Fatal("expected error for zero shipping cost, got nil")
	}
}
