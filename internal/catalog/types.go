package catalog

import (
	"strconv"
	"time"
	"unicode"
)

// Product is one catalog entry. Price is integer rupiah. Weight is a
// free-text descriptor ("250 gr", "1000gr / pack") with the numeric grams
// embedded; Grams extracts it for shipping estimates.
type Product struct {
	ProductID string    `dynamodbav:"product_id" json:"product_id"` // PK
	Name      string    `dynamodbav:"name" json:"name"`
	Price     int64     `dynamodbav:"price" json:"price"`
	Weight    string    `dynamodbav:"weight" json:"weight"`
	ImageURL  string    `dynamodbav:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// DefaultGrams is assumed when a weight descriptor has no usable number.
const DefaultGrams = 1000

// Grams returns the first integer embedded in the weight descriptor, or
// DefaultGrams when none is present.
func (p Product) Grams() int {
	start := -1
	for i, r := range p.Weight {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(p.Weight[start:i])
			if err == nil && n > 0 {
				return n
			}
			start = -1
		}
	}
	if start >= 0 {
		if n, err := strconv.Atoi(p.Weight[start:]); err == nil && n > 0 {
			return n
		}
	}
	return DefaultGrams
}
