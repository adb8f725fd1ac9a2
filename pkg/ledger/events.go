package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
	"github.com/provenanceworks/tracelot/pkg/units"
)

// CreateLot registers a new lot for a product at a facility, in active
// status with the full initial quantity available. The quantity is
// normalized to the base unit before storage. When code is empty a
// traceability lot code is generated from the product code.
func (e *Engine) CreateLot(productID, facilityID string, quantity decimal.Decimal, unit, code string) (*types.Lot, error) {
	product, err := e.store.GetProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("resolving product %s: %w", productID, err)
	}
	if _, err := e.store.GetFacility(facilityID); err != nil {
		return nil, fmt.Errorf("resolving facility %s: %w", facilityID, err)
	}

	qty, err := units.Normalize(quantity, unit)
	if err != nil {
		return nil, err
	}

	if code == "" {
		code = newLotCode(product.Code)
	}

	now := time.Now().UTC()
	lot := &types.Lot{
		Code:       code,
		ProductID:  productID,
		FacilityID: facilityID,
		Unit:       units.Base,
		InitialQty: qty,
		Available:  qty,
		Reserved:   decimal.Zero,
		Shipped:    decimal.Zero,
		Status:     types.LotActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.CreateLot(lot); err != nil {
		return nil, fmt.Errorf("creating lot %s: %w", code, err)
	}
	return lot, nil
}

// RecordEvent validates and appends a critical tracking event to a lot,
// then applies its effect to the lot's derived balance. The KDE map is
// decoded into the typed variant for the event type; missing mandatory
// fields fail with a *types.KDEError. The originating facility must be
// permitted to originate the event type. Chronology, the append, and the
// balance update run as one per-lot critical section.
func (e *Engine) RecordEvent(lotID string, eventType types.EventType, timestamp time.Time, facilityID string, kdeMap map[string]any) (*types.Event, error) {
	if eventType == types.EventTransformation {
		return nil, types.ErrTransformationViaRecordEvent
	}

	kde, err := types.DecodeKDE(eventType, kdeMap)
	if err != nil {
		return nil, err
	}

	facility, err := e.store.GetFacility(facilityID)
	if err != nil {
		return nil, fmt.Errorf("resolving facility %s: %w", facilityID, err)
	}
	if !facility.CanOriginate(eventType) {
		return nil, &types.CapabilityError{
			FacilityID:   facilityID,
			FacilityType: facility.Type,
			EventType:    eventType,
		}
	}

	event := &types.Event{
		LotID:      lotID,
		Type:       eventType,
		Timestamp:  timestamp.UTC(),
		FacilityID: facilityID,
		KDE:        kde,
		CreatedAt:  time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	err = e.locks.withLots([]string{lotID}, func() error {
		return e.withRetry(func() error {
			return e.appendAndApply(event)
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// appendAndApply performs the chronology check, the append, and the
// incremental balance update for one event. Caller holds the lot lock.
func (e *Engine) appendAndApply(event *types.Event) error {
	lot, err := e.store.GetLot(event.LotID)
	if err != nil {
		return err
	}

	if err := e.validateChronology(lot.LotID, event.Type, event.Timestamp); err != nil {
		return err
	}

	// Balance effects are validated before anything is written so a
	// rejection leaves no side effects.
	write := types.WriteSet{Event: event}
	switch event.Type {
	case types.EventReceiving:
		if kde, ok := event.KDE.(*types.ReceivingKDE); ok && !kde.Quantity.IsZero() {
			lot.Available = lot.Available.Add(kde.Quantity)
			lot.UpdatedAt = time.Now().UTC()
			write.UpdateLots = []*types.Lot{lot}
		}
	case types.EventShipping:
		// Plain shipping events carry no quantity; RecordShipment is
		// the quantity-bearing path. Status stays driven by shipments.
	}

	event.EventID = newID()
	if err := e.store.ApplyWrite(write); err != nil {
		return fmt.Errorf("recording %s event on lot %s: %w", event.Type, lot.LotID, err)
	}
	return nil
}

// TransitionStatus moves a lot through the legal status graph. Illegal
// moves fail with a *types.StatusError and leave the lot untouched.
func (e *Engine) TransitionStatus(lotID string, target types.LotStatus) (*types.Lot, error) {
	var lot *types.Lot
	err := e.locks.withLots([]string{lotID}, func() error {
		return e.withRetry(func() error {
			var err error
			lot, err = e.store.GetLot(lotID)
			if err != nil {
				return err
			}
			if err := lot.TransitionTo(target); err != nil {
				return err
			}
			return e.store.UpdateLot(lot)
		})
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// RecallLot flips a lot to recalled from any status. Recalling an
// already recalled lot is a no-op that returns the lot unchanged.
func (e *Engine) RecallLot(lotID string) (*types.Lot, error) {
	var lot *types.Lot
	err := e.locks.withLots([]string{lotID}, func() error {
		return e.withRetry(func() error {
			var err error
			lot, err = e.store.GetLot(lotID)
			if err != nil {
				return err
			}
			if lot.Status == types.LotRecalled {
				return nil
			}
			lot.Recall()
			return e.store.UpdateLot(lot)
		})
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// Reserve moves quantity from available to reserved on an active lot.
// Fails with a *types.InventoryError when available cannot cover it.
func (e *Engine) Reserve(lotID string, quantity decimal.Decimal) (*types.Lot, error) {
	if quantity.IsNegative() || quantity.IsZero() {
		return nil, fmt.Errorf("%w: reservation must be positive", types.ErrInvalidQuantity)
	}
	var lot *types.Lot
	err := e.locks.withLots([]string{lotID}, func() error {
		return e.withRetry(func() error {
			var err error
			lot, err = e.store.GetLot(lotID)
			if err != nil {
				return err
			}
			if lot.Status != types.LotActive {
				return fmt.Errorf("%w: lot %s is %s", types.ErrLotNotActive, lot.Code, lot.Status)
			}
			if lot.Available.LessThan(quantity) {
				return &types.InventoryError{
					LotID: lot.LotID, LotCode: lot.Code,
					Requested: quantity, Available: lot.Available,
				}
			}
			lot.Available = lot.Available.Sub(quantity)
			lot.Reserved = lot.Reserved.Add(quantity)
			lot.UpdatedAt = time.Now().UTC()
			return e.store.UpdateLot(lot)
		})
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// ReleaseReservation moves quantity back from reserved to available.
// Releasing more than is reserved fails with ErrInvalidQuantity.
func (e *Engine) ReleaseReservation(lotID string, quantity decimal.Decimal) (*types.Lot, error) {
	if quantity.IsNegative() || quantity.IsZero() {
		return nil, fmt.Errorf("%w: release must be positive", types.ErrInvalidQuantity)
	}
	var lot *types.Lot
	err := e.locks.withLots([]string{lotID}, func() error {
		return e.withRetry(func() error {
			var err error
			lot, err = e.store.GetLot(lotID)
			if err != nil {
				return err
			}
			if lot.Reserved.LessThan(quantity) {
				return fmt.Errorf("%w: release %s exceeds reserved %s",
					types.ErrInvalidQuantity, quantity, lot.Reserved)
			}
			lot.Reserved = lot.Reserved.Sub(quantity)
			lot.Available = lot.Available.Add(quantity)
			lot.UpdatedAt = time.Now().UTC()
			return e.store.UpdateLot(lot)
		})
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// ExpireLots flips active lots whose shelf life has elapsed to expired,
// measured from the lot's first origin event (falling back to lot
// creation) plus the product's shelf-life days. Products without a shelf
// life never expire. Returns the lots flipped.
func (e *Engine) ExpireLots(asOf time.Time) ([]*types.Lot, error) {
	active, err := e.store.ListLots(types.LotActive)
	if err != nil {
		return nil, fmt.Errorf("listing active lots: %w", err)
	}

	var expired []*types.Lot
	for _, lot := range active {
		product, err := e.store.GetProduct(lot.ProductID)
		if err != nil {
			return expired, fmt.Errorf("resolving product for lot %s: %w", lot.Code, err)
		}
		if product.ShelfLifeDays <= 0 {
			continue
		}

		start := lot.CreatedAt
		events, err := e.store.EventsForLot(lot.LotID)
		if err != nil {
			return expired, err
		}
		for _, ev := range events {
			if types.OriginEventTypes[ev.Type] {
				start = ev.Timestamp
				break
			}
		}

		if !start.AddDate(0, 0, product.ShelfLifeDays).After(asOf) {
			flipped, err := e.TransitionStatus(lot.LotID, types.LotExpired)
			if err != nil {
				return expired, err
			}
			expired = append(expired, flipped)
		}
	}
	return expired, nil
}

// newID generates a UUID v7 entity ID, falling back to v4 when the
// monotonic source fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// newLotCode derives a human-scannable traceability lot code from the
// product code and a fresh UUID suffix.
func newLotCode(productCode string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(newID(), "-", ""))
	if len(suffix) > 10 {
		suffix = suffix[len(suffix)-10:]
	}
	return fmt.Sprintf("TLC-%s-%s", strings.ToUpper(productCode), suffix)
}
