// Package customer provides the Customer catalog.
package customer

import (
	"context"
	"regexp"

	"comercia/internal/core/apperror"
	"comercia/internal/core/entity"
)

// Branch is a delivery location belonging to a customer.
// Stored as JSONB on the customer row.
type Branch struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Customer represents a buyer. Code holds the RUC (tax id), unique
// across the catalog.
type Customer struct {
	entity.Catalog

	Address  string   `db:"address" json:"address"`
	Phone    string   `db:"phone" json:"phone,omitempty"`
	Email    string   `db:"email" json:"email,omitempty"`
	Branches []Branch `db:"branches" json:"branches,omitempty"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(ruc, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(ruc, name),
	}
}

// RUC returns the tax identifier.
func (c *Customer) RUC() string {
	return c.Code
}

var rucPattern = regexp.MustCompile(`^\d{11}$`)

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Code != "" && !rucPattern.MatchString(c.Code) {
		return apperror.NewValidation("RUC must be 11 digits").
			WithDetail("field", "ruc").
			WithDetail("value", c.Code)
	}

	if c.Email != "" && !isValidEmail(c.Email) {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email")
	}

	for i, b := range c.Branches {
		if b.Name == "" {
			return apperror.NewValidation("branch name is required").
				WithDetail("field", "branches").
				WithDetail("index", i)
		}
	}

	return nil
}

// FindBranch returns the branch with the given name, if any.
func (c *Customer) FindBranch(name string) (Branch, bool) {
	for _, b := range c.Branches {
		if b.Name == name {
			return b, true
		}
	}
	return Branch{}, false
}

func isValidEmail(email string) bool {
	return regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`).MatchString(email)
}
