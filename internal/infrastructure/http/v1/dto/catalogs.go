package dto

import (
	"comercia/internal/core/types"
	"comercia/internal/domain/catalogs/customer"
	"comercia/internal/domain/catalogs/product"
	"comercia/internal/domain/catalogs/supplier"
	"comercia/internal/domain/catalogs/warehouse"
)

// --- Customers ---

// CreateCustomerRequest creates a customer. RUC is the tax id and
// doubles as the catalog code.
type CreateCustomerRequest struct {
	RUC      string            `json:"ruc" binding:"required"`
	Name     string            `json:"name" binding:"required"`
	Address  string            `json:"address"`
	Phone    string            `json:"phone"`
	Email    string            `json:"email"`
	Branches []customer.Branch `json:"branches"`
}

// ToEntity maps the request to a domain customer.
func (r CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.NewCustomer(r.RUC, r.Name)
	c.Address = r.Address
	c.Phone = r.Phone
	c.Email = r.Email
	c.Branches = r.Branches
	return c
}

// UpdateCustomerRequest updates mutable customer fields. Version is
// required for the optimistic lock check.
type UpdateCustomerRequest struct {
	Name     *string           `json:"name"`
	Address  *string           `json:"address"`
	Phone    *string           `json:"phone"`
	Email    *string           `json:"email"`
	Branches []customer.Branch `json:"branches"`
	Version  int               `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing entity in place.
func (r UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Address != nil {
		c.Address = *r.Address
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Branches != nil {
		c.Branches = r.Branches
	}
	c.Version = r.Version
}

// --- Suppliers ---

// CreateSupplierRequest creates a supplier.
type CreateSupplierRequest struct {
	RUC     string `json:"ruc" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ToEntity maps the request to a domain supplier.
func (r CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.RUC, r.Name)
	s.Email = r.Email
	s.Phone = r.Phone
	s.Address = r.Address
	return s
}

// UpdateSupplierRequest updates mutable supplier fields.
type UpdateSupplierRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing entity in place.
func (r UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Phone != nil {
		s.Phone = *r.Phone
	}
	if r.Address != nil {
		s.Address = *r.Address
	}
	s.Version = r.Version
}

// --- Products ---

// CreateProductRequest creates a product. Cost is not accepted here:
// the ledger owns it. InitialStock is an opening quantity; the create
// flow writes it as a ledger movement rather than a column.
type CreateProductRequest struct {
	SKU          string      `json:"sku" binding:"required"`
	Name         string      `json:"name" binding:"required"`
	Brand        string      `json:"brand"`
	Description  string      `json:"description"`
	Price        types.Money `json:"price"`
	InitialStock int64       `json:"initialStock" binding:"omitempty,min=0"`
}

// ToEntity maps the request to a domain product.
func (r CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.SKU, r.Name, r.Price)
	p.Brand = r.Brand
	p.Description = r.Description
	p.InitialStock = r.InitialStock
	return p
}

// UpdateProductRequest updates mutable product fields.
type UpdateProductRequest struct {
	Name        *string      `json:"name"`
	Brand       *string      `json:"brand"`
	Description *string      `json:"description"`
	Price       *types.Money `json:"price"`
	Version     int          `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing entity in place.
func (r UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Brand != nil {
		p.Brand = *r.Brand
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	p.Version = r.Version
}

// ProductResponse carries a product with 2dp money.
type ProductResponse struct {
	ID           string      `json:"id"`
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	Brand        string      `json:"brand,omitempty"`
	Description  string      `json:"description,omitempty"`
	Price        types.Money `json:"price"`
	Cost         types.Money `json:"cost"`
	StockCurrent int64       `json:"stockCurrent"`
	DeletionMark bool        `json:"deletionMark"`
	Version      int         `json:"version"`
}

// FromProduct maps a domain product to its response shape.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.Code,
		Name:         p.Name,
		Brand:        p.Brand,
		Description:  p.Description,
		Price:        types.Round2(p.Price),
		Cost:         types.Round2(p.Cost),
		StockCurrent: p.StockCurrent,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}

// --- Warehouses ---

// CreateWarehouseRequest creates a warehouse. Code is generated when
// omitted.
type CreateWarehouseRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	IsMain  bool   `json:"isMain"`
}

// ToEntity maps the request to a domain warehouse.
func (r CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	wh := warehouse.NewWarehouse(r.Code, r.Name, r.Address)
	wh.IsMain = r.IsMain
	return wh
}

// UpdateWarehouseRequest updates mutable warehouse fields.
type UpdateWarehouseRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	IsMain   *bool   `json:"isMain"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing entity in place.
func (r UpdateWarehouseRequest) ApplyTo(wh *warehouse.Warehouse) {
	if r.Name != nil {
		wh.Name = *r.Name
	}
	if r.Address != nil {
		wh.Address = *r.Address
	}
	if r.IsMain != nil {
		wh.IsMain = *r.IsMain
	}
	if r.IsActive != nil {
		wh.IsActive = *r.IsActive
	}
	wh.Version = r.Version
}
