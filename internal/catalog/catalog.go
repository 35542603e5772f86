// Package catalog provides the read-only product data source.
//
// The catalog is a static list; the order store references products but never
// mutates them.
package catalog

import (
	"errors"
	"strings"
	"sync"
)

var ErrProductNotFound = errors.New("product not found")

// Product represents a catalog entry. Price is in whole Lao Kip.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Stock       int32   `json:"stock"`
	Rating      float64 `json:"rating"`
	Reviews     int32   `json:"reviews"`
}

// Provider serves catalog lookups over a fixed product list.
type Provider struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]int
}

// NewProvider creates a Provider over the given products. Pass nil to use the
// built-in demo catalog.
func NewProvider(products []Product) *Provider {
	if products == nil {
		products = demoProducts
	}
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	return &Provider{products: products, byID: byID}
}

// FindByID retrieves a product by its ID.
func (p *Provider) FindByID(id string) (*Product, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i, ok := p.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	product := p.products[i]
	return &product, nil
}

// FindAll retrieves all products in catalog order.
func (p *Provider) FindAll() []Product {
	p.mu.RLock()
	defer p.mu.RUnlock()

	list := make([]Product, len(p.products))
	copy(list, p.products)
	return list
}

// FindByCategory retrieves products in the given category.
// The pseudo-category "All" matches everything.
func (p *Provider) FindByCategory(category string) []Product {
	if category == "" || category == "All" {
		return p.FindAll()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	list := make([]Product, 0)
	for _, product := range p.products {
		if product.Category == category {
			list = append(list, product)
		}
	}
	return list
}

// Search retrieves products whose name or description contains the query,
// case-insensitively.
func (p *Provider) Search(query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return p.FindAll()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	list := make([]Product, 0)
	for _, product := range p.products {
		if strings.Contains(strings.ToLower(product.Name), query) ||
			strings.Contains(strings.ToLower(product.Description), query) {
			list = append(list, product)
		}
	}
	return list
}

// Categories returns the category filter list shown to the shopper.
func (p *Provider) Categories() []string {
	return []string{"All", "Mobile Phones", "Computers", "Tablets", "Headphones", "Watches", "Gaming"}
}
