// Package supplier provides the Supplier catalog.
package supplier

import (
	"context"
	"regexp"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
)

// Supplier represents a vendor goods are purchased from.
type Supplier struct {
	entity.Catalog

	Email   string `db:"email" json:"email,omitempty"`
	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
}

// NewSupplier creates a new Supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Email != "" && !isValidEmail(s.Email) {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email")
	}

	return nil
}

func isValidEmail(email string) bool {
	return regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`).MatchString(email)
}
