package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// a checkout must not list the same product twice; quantities belong on
	// one line so the snapshot stays unambiguous
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})
	v.RegisterStructValidation(estimateStructValidation, EstimateRequest{})

	return v
}

func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)
	reportDuplicateItems(sl, req.Items)
}

func estimateStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(EstimateRequest)
	reportDuplicateItems(sl, req.Items)
}

func reportDuplicateItems(sl validatorv10.StructLevel, items []CheckoutItem) {
	seen := map[string]bool{}
	for _, it := range items {
		if seen[it.ProductID] {
			sl.ReportError(items, "items", "Items", "unique_products", it.ProductID)
			return
		}
		seen[it.ProductID] = true
	}
}
