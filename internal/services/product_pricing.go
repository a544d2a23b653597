package services

import (
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/pricing"
)

// ProductPrice is the normalized price of the base product.
func ProductPrice(p *models.Product) pricing.Pricing {
	return pricing.Normalize(linePrice(&models.CartItem{Product: p}))
}

// VariantPrice is the normalized price of one variant.
func VariantPrice(p *models.Product, v *models.ProductVariant) pricing.Pricing {
	return pricing.Normalize(linePrice(&models.CartItem{Product: p, Variant: v}))
}

// ProductPriceRange spans the active variants, or the base product when
// it has none.
func ProductPriceRange(p *models.Product) pricing.Range {
	prices := make([]pricing.Pricing, 0, len(p.Variants))
	for i := range p.Variants {
		if p.Variants[i].IsActive {
			prices = append(prices, VariantPrice(p, &p.Variants[i]))
		}
	}
	if len(prices) == 0 {
		prices = append(prices, ProductPrice(p))
	}
	return pricing.RangeOf(prices...)
}
