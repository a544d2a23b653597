// Package pricing turns the loosely shaped price fields found on products,
// variants and cart rows into one canonical record.
package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Input carries the raw price fields as they arrive from JSON, the cart or
// the catalog. Any field may be nil, a number, a json.Number or a numeric
// string.
type Input struct {
	Price         any `json:"price"`
	OriginalPrice any `json:"originalPrice"`
	MRP           any `json:"mrp"`
}

// Pricing is the canonical price triple. DiscountAmount is never negative.
type Pricing struct {
	FinalPrice     float64 `json:"finalPrice"`
	MRP            float64 `json:"mrp"`
	DiscountAmount float64 `json:"discountAmount"`
}

// FromMap picks the price fields out of a decoded JSON object.
func FromMap(m map[string]any) Input {
	if m == nil {
		return Input{}
	}
	return Input{
		Price:         m["price"],
		OriginalPrice: m["originalPrice"],
		MRP:           m["mrp"],
	}
}

// Normalize resolves the canonical price triple, rounded to paise. It never
// fails: unusable fields degrade to the next candidate and finally to zero.
func Normalize(in Input) Pricing {
	final, ok := ParseAmount(in.Price)
	if !ok {
		final = 0
	}

	mrp := final
	for _, candidate := range []any{in.OriginalPrice, in.MRP, in.Price} {
		if v, ok := ParseAmount(candidate); ok {
			mrp = v
			break
		}
	}
	if mrp <= 0 {
		mrp = final
	}

	final, mrp = Round(final), Round(mrp)
	return Pricing{
		FinalPrice:     final,
		MRP:            mrp,
		DiscountAmount: math.Max(Round(mrp-final), 0),
	}
}

// ParseAmount coerces v to a finite, non-negative amount. The boolean is
// false for nil, empty or non-numeric strings, NaN, infinities and
// negative values.
func ParseAmount(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case *float64:
		if n == nil {
			return 0, false
		}
		f = *n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		s = strings.TrimPrefix(s, "₹")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

// Round rounds a rupee amount to paise.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}
