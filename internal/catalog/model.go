package catalog

import "checkout-be/internal/payment"

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Category    *string `json:"category,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
}

// MinorAmount is the price expressed in the gateway's minor currency unit.
func (p Product) MinorAmount() int64 {
	return payment.ToMinor(p.Price)
}

// clone returns a copy that shares no pointers with p.
func (p Product) clone() Product {
	if p.Category != nil {
		category := *p.Category
		p.Category = &category
	}
	if p.Stock != nil {
		stock := *p.Stock
		p.Stock = &stock
	}
	return p
}
