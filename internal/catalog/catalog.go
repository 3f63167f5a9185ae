package catalog

import (
	"fmt"
	"strings"
)

type Catalog interface {
	List() []Product
	Get(id string) (Product, error)
}

type staticCatalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) Catalog {
	c := &staticCatalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.products[i] = p.clone()
		c.byID[p.ID] = i
	}
	return c
}

// Default returns the storefront's built-in product list.
func Default() Catalog {
	return New(defaultProducts())
}

func (c *staticCatalog) List() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.clone()
	}
	return out
}

func (c *staticCatalog) Get(id string) (Product, error) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, id)
	}
	return c.products[i].clone(), nil
}

func defaultProducts() []Product {
	electronics := "Electronics"
	headphonesStock, mouseStock := 50, 100

	return []Product{
		{
			ID:          "prod_1",
			Name:        "Premium Headphones",
			Price:       25000,
			Description: "High-quality wireless headphones",
			Image:       "🎧",
			Category:    &electronics,
			Stock:       &headphonesStock,
		},
		{
			ID:          "prod_2",
			Name:        "Wireless Mouse",
			Price:       3500,
			Description: "Ergonomic wireless mouse",
			Image:       "🖱️",
			Category:    &electronics,
			Stock:       &mouseStock,
		},
	}
}
