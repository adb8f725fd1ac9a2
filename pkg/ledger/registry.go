package ledger

import (
	"fmt"
	"time"

	"github.com/provenanceworks/tracelot/pkg/types"
	"github.com/provenanceworks/tracelot/pkg/units"
)

// RegisterProduct validates and stores a catalog entry. The canonical
// unit must be a recognized unit symbol.
func (e *Engine) RegisterProduct(p *types.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.CanonicalUnit == "" {
		p.CanonicalUnit = units.Base
	}
	if !units.Supported(p.CanonicalUnit) {
		return fmt.Errorf("%w: %q", types.ErrUnsupportedUnit, p.CanonicalUnit)
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return e.store.SaveProduct(p)
}

// RegisterFacility validates and stores a supply-chain node.
func (e *Engine) RegisterFacility(f *types.Facility) error {
	if err := f.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return e.store.SaveFacility(f)
}

// Products returns the catalog ordered by code.
func (e *Engine) Products() ([]*types.Product, error) {
	return e.store.ListProducts()
}

// Facilities returns the registered facilities ordered by name.
func (e *Engine) Facilities() ([]*types.Facility, error) {
	return e.store.ListFacilities()
}

// Lots returns lots ordered by code, optionally filtered by status.
func (e *Engine) Lots(status types.LotStatus) ([]*types.Lot, error) {
	return e.store.ListLots(status)
}

// Lot returns a lot by ID.
func (e *Engine) Lot(lotID string) (*types.Lot, error) {
	return e.store.GetLot(lotID)
}

// LotByCode returns a lot by its traceability lot code.
func (e *Engine) LotByCode(code string) (*types.Lot, error) {
	return e.store.GetLotByCode(code)
}

// Events returns a lot's events ascending by timestamp.
func (e *Engine) Events(lotID string) ([]*types.Event, error) {
	return e.store.EventsForLot(lotID)
}
