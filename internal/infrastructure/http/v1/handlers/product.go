package handlers

import (
	"comercia/internal/domain/catalogs/product"
	"comercia/internal/infrastructure/http/v1/dto"
)

// ProductHTTPHandler handles /inventory/products.
type ProductHTTPHandler = CatalogHandler[
	*product.Product,
	dto.CreateProductRequest,
	dto.UpdateProductRequest,
]

// NewProductHandler wires the generic catalog handler for products.
func NewProductHandler(
	base *BaseHandler,
	service *product.Service,
) *ProductHTTPHandler {

	config := CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "product",

		// Opening-stock seeding lives on the product service's own Create.
		CreateFn: service.Create,

		MapCreateDTO: func(req dto.CreateProductRequest) (*product.Product, error) {
			return req.ToEntity(), nil
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *product.Product) any {
			return dto.FromProduct(entity)
		},
	}

	return NewCatalogHandler(base, config)
}
