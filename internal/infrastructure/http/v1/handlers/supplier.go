package handlers

import (
	"comercia/internal/domain/catalogs/supplier"
	"comercia/internal/infrastructure/http/v1/dto"
)

// SupplierHTTPHandler handles /purchasing/suppliers.
type SupplierHTTPHandler = CatalogHandler[
	*supplier.Supplier,
	dto.CreateSupplierRequest,
	dto.UpdateSupplierRequest,
]

// NewSupplierHandler wires the generic catalog handler for suppliers.
func NewSupplierHandler(
	base *BaseHandler,
	service *supplier.Service,
) *SupplierHTTPHandler {

	config := CatalogHandlerConfig[
		*supplier.Supplier,
		dto.CreateSupplierRequest,
		dto.UpdateSupplierRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "supplier",

		MapCreateDTO: func(req dto.CreateSupplierRequest) (*supplier.Supplier, error) {
			return req.ToEntity(), nil
		},

		MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) *supplier.Supplier {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *supplier.Supplier) any {
			return entity
		},
	}

	return NewCatalogHandler(base, config)
}
