package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
	"github.com/provenanceworks/tracelot/pkg/units"
)

// ShipmentSpec describes an outbound shipment of one lot.
type ShipmentSpec struct {
	LotID         string
	FacilityID    string
	Timestamp     time.Time
	Quantity      decimal.Decimal
	Unit          string
	Destination   string
	TransportInfo string
	ReferenceDocs []string
}

// RecordShipment appends a shipping event to the lot and records the
// linked shipment. The quantity is normalized, then validated against the
// lot's shippable balance: reserved stock is consumed first, the
// remainder comes from available, and a request exceeding both fails with
// a *types.InventoryError leaving the lot untouched. When the lot's
// balance reaches zero its status flips to shipped.
func (e *Engine) RecordShipment(spec ShipmentSpec) (*types.Shipment, error) {
	qty, err := units.Normalize(spec.Quantity, spec.Unit)
	if err != nil {
		return nil, err
	}
	if qty.IsZero() {
		return nil, fmt.Errorf("%w: shipment quantity must be positive", types.ErrInvalidQuantity)
	}

	facility, err := e.store.GetFacility(spec.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("resolving facility %s: %w", spec.FacilityID, err)
	}
	if !facility.CanOriginate(types.EventShipping) {
		return nil, &types.CapabilityError{
			FacilityID:   spec.FacilityID,
			FacilityType: facility.Type,
			EventType:    types.EventShipping,
		}
	}

	var shipment *types.Shipment
	err = e.locks.withLots([]string{spec.LotID}, func() error {
		return e.withRetry(func() error {
			lot, err := e.store.GetLot(spec.LotID)
			if err != nil {
				return err
			}
			if lot.Status != types.LotActive {
				return fmt.Errorf("%w: lot %s is %s", types.ErrLotNotActive, lot.Code, lot.Status)
			}

			shippable := lot.Available.Add(lot.Reserved)
			if shippable.LessThan(qty) {
				return &types.InventoryError{
					LotID: lot.LotID, LotCode: lot.Code,
					Requested: qty, Available: shippable,
				}
			}

			if err := e.validateChronology(lot.LotID, types.EventShipping, spec.Timestamp); err != nil {
				return err
			}

			location := facility.LocationCode
			if location == "" {
				location = facility.Name
			}
			event := &types.Event{
				EventID:    newID(),
				LotID:      lot.LotID,
				Type:       types.EventShipping,
				Timestamp:  spec.Timestamp.UTC(),
				FacilityID: spec.FacilityID,
				KDE: &types.ShippingKDE{
					ShippingDate:     spec.Timestamp.UTC().Format(time.RFC3339),
					ShippingLocation: location,
					LotCode:          lot.Code,
					Destination:      spec.Destination,
					TransportInfo:    spec.TransportInfo,
				},
				CreatedAt: time.Now().UTC(),
			}
			if err := event.Validate(); err != nil {
				return err
			}

			shipment = &types.Shipment{
				ShipmentID:    newID(),
				EventID:       event.EventID,
				LotID:         lot.LotID,
				Destination:   spec.Destination,
				Quantity:      qty,
				Unit:          units.Base,
				TransportInfo: spec.TransportInfo,
				ReferenceDocs: spec.ReferenceDocs,
				CreatedAt:     time.Now().UTC(),
			}

			// Reserved stock covers the shipment first.
			fromReserved := decimal.Min(lot.Reserved, qty)
			lot.Reserved = lot.Reserved.Sub(fromReserved)
			lot.Available = lot.Available.Sub(qty.Sub(fromReserved))
			lot.Shipped = lot.Shipped.Add(qty)
			lot.UpdatedAt = time.Now().UTC()

			if lot.Available.IsZero() && lot.Reserved.IsZero() {
				if err := lot.TransitionTo(types.LotShipped); err != nil {
					return err
				}
			}

			write := types.WriteSet{
				Event:      event,
				Shipment:   shipment,
				UpdateLots: []*types.Lot{lot},
			}
			if err := e.store.ApplyWrite(write); err != nil {
				return fmt.Errorf("recording shipment for lot %s: %w", lot.Code, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}
