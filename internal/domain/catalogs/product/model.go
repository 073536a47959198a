// Package product provides the Product catalog.
//
// Stock and cost are ledger-owned: stock_current and cost are only ever
// written by the inventory ledger, never by catalog CRUD.
package product

import (
	"context"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
	"comercia/internal/core/types"
)

// Product represents a sellable item. Code holds the SKU.
type Product struct {
	entity.Catalog

	Brand       string `db:"brand" json:"brand,omitempty"`
	Description string `db:"description" json:"description,omitempty"`

	// Price is the sale price, tax inclusive
	Price types.Money `db:"price" json:"price"`

	// Cost is the weighted-average purchase cost, maintained by the ledger
	Cost types.Money `db:"cost" json:"cost"`

	// StockCurrent mirrors the sum of signed ledger movements for this SKU
	StockCurrent int64 `db:"stock_current" json:"stockCurrent"`

	// InitialStock is the opening quantity requested at creation. Not a
	// column: the create flow turns it into a ledger movement.
	InitialStock int64 `db:"-" json:"-"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(sku, name string, price types.Money) *Product {
	return &Product{
		Catalog: entity.NewCatalog(sku, name),
		Price:   price,
	}
}

// SKU returns the stock keeping unit.
func (p *Product) SKU() string {
	return p.Code
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}

	return nil
}
