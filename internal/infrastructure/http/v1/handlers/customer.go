package handlers

import (
	"comercia/internal/domain/catalogs/customer"
	"comercia/internal/infrastructure/http/v1/dto"
)

// CustomerHTTPHandler handles /sales/customers.
type CustomerHTTPHandler = CatalogHandler[
	*customer.Customer,
	dto.CreateCustomerRequest,
	dto.UpdateCustomerRequest,
]

// NewCustomerHandler wires the generic catalog handler for customers.
func NewCustomerHandler(
	base *BaseHandler,
	service *customer.Service,
) *CustomerHTTPHandler {

	config := CatalogHandlerConfig[
		*customer.Customer,
		dto.CreateCustomerRequest,
		dto.UpdateCustomerRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "customer",

		MapCreateDTO: func(req dto.CreateCustomerRequest) (*customer.Customer, error) {
			return req.ToEntity(), nil
		},

		MapUpdateDTO: func(req dto.UpdateCustomerRequest, existing *customer.Customer) *customer.Customer {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *customer.Customer) any {
			return entity
		},
	}

	return NewCatalogHandler(base, config)
}
