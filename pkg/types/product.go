package types

import (
	"errors"
	"time"
)

// Product is a catalog entry owned by a company. Descriptive fields may
// change after creation; Code and CanonicalUnit are immutable once any
// lot references the product.
type Product struct {
	ProductID     string    `json:"product_id"`
	CompanyID     string    `json:"company_id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	CanonicalUnit string    `json:"canonical_unit"`
	ShelfLifeDays int       `json:"shelf_life_days"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Product validation errors.
var (
	ErrProductCodeEmpty = errors.New("product code must not be empty")
	ErrProductNameEmpty = errors.New("product name must not be empty")
)

// Validate checks that the product is well-formed.
func (p *Product) Validate() error {
	if p.Code == "" {
		return ErrProductCodeEmpty
	}
	if p.Name == "" {
		return ErrProductNameEmpty
	}
	return nil
}
