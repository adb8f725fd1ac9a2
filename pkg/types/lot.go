package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotStatus identifies where a lot sits in its lifecycle.
type LotStatus string

// Lot statuses. A lot starts active; shipped, consumed and expired are
// terminal; recalled is reachable from every status as a safety override.
const (
	LotActive   LotStatus = "active"
	LotShipped  LotStatus = "shipped"
	LotConsumed LotStatus = "consumed"
	LotExpired  LotStatus = "expired"
	LotRecalled LotStatus = "recalled"
)

// validLotStatuses is the set of recognized lot status values.
var validLotStatuses = map[LotStatus]bool{
	LotActive:   true,
	LotShipped:  true,
	LotConsumed: true,
	LotExpired:  true,
	LotRecalled: true,
}

// lotTransitions is the legal status graph. Recall is handled separately
// in TransitionTo because it is reachable from any status.
var lotTransitions = map[LotStatus][]LotStatus{
	LotActive: {LotShipped, LotConsumed, LotExpired},
}

// Lot is a uniquely coded quantity of one product produced or received at
// one facility (a traceability lot code, TLC). Balances are derived from
// the lot's event history and maintained incrementally by the ledger
// engine; they are never edited directly. Lots are never deleted, only
// status-flipped, and every status change is driven by an event.
type Lot struct {
	LotID      string          `json:"lot_id"`
	Code       string          `json:"code"`
	ProductID  string          `json:"product_id"`
	FacilityID string          `json:"facility_id"`
	Unit       string          `json:"unit"`
	InitialQty decimal.Decimal `json:"initial_qty"`
	Available  decimal.Decimal `json:"available"`
	Reserved   decimal.Decimal `json:"reserved"`
	Shipped    decimal.Decimal `json:"shipped"`
	Status     LotStatus       `json:"status"`

	// Version is the optimistic concurrency token. Store.UpdateLot
	// performs a conditional write keyed on it and increments it.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransitionTo moves the lot to the given status. The legal graph is
// active -> {shipped, consumed, expired, recalled}; recalled is reachable
// from any status. Returns a *StatusError (unwrapping to
// ErrIllegalStatusTransition) for any other move, including out of a
// terminal status. Transitioning to the current status is not permitted.
func (l *Lot) TransitionTo(target LotStatus) error {
	if !validLotStatuses[target] || target == l.Status {
		return &StatusError{LotID: l.LotID, From: l.Status, To: target}
	}
	if target == LotRecalled {
		l.Status = LotRecalled
		l.UpdatedAt = time.Now().UTC()
		return nil
	}
	for _, allowed := range lotTransitions[l.Status] {
		if allowed == target {
			l.Status = target
			l.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return &StatusError{LotID: l.LotID, From: l.Status, To: target}
}

// Recall flips the lot to recalled regardless of its current status.
// Idempotent: recalling a recalled lot succeeds without change.
func (l *Lot) Recall() {
	if l.Status == LotRecalled {
		return
	}
	l.Status = LotRecalled
	l.UpdatedAt = time.Now().UTC()
}

// Balance is the derived quantity triple for a lot.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
	Shipped   decimal.Decimal `json:"shipped"`
}

// Balance returns the lot's current derived balance.
func (l *Lot) Balance() Balance {
	return Balance{Available: l.Available, Reserved: l.Reserved, Shipped: l.Shipped}
}
