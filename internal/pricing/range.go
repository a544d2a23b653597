package pricing

// Range summarizes the sale and list prices across a product's variants.
type Range struct {
	SaleMin float64 `json:"saleMin"`
	SaleMax float64 `json:"saleMax"`
	MRPMin  float64 `json:"mrpMin"`
	MRPMax  float64 `json:"mrpMax"`
}

// RangeOf builds a Range from normalized prices. An empty slice yields the
// zero Range.
func RangeOf(prices ...Pricing) Range {
	if len(prices) == 0 {
		return Range{}
	}
	r := Range{
		SaleMin: prices[0].FinalPrice,
		SaleMax: prices[0].FinalPrice,
		MRPMin:  prices[0].MRP,
		MRPMax:  prices[0].MRP,
	}
	for _, p := range prices[1:] {
		r.SaleMin = min(r.SaleMin, p.FinalPrice)
		r.SaleMax = max(r.SaleMax, p.FinalPrice)
		r.MRPMin = min(r.MRPMin, p.MRP)
		r.MRPMax = max(r.MRPMax, p.MRP)
	}
	return r
}

// ShowStrikethrough reports whether a product card should show the list
// price struck through next to the sale price.
func (r Range) ShowStrikethrough() bool {
	return r.MRPMin > r.SaleMin || r.MRPMax > r.SaleMax
}
