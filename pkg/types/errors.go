package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Lookup errors.
var (
	ErrLotNotFound      = errors.New("lot not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrFacilityNotFound = errors.New("facility not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrEdgeNotFound     = errors.New("transformation edge not found")
	ErrDuplicateLotCode = errors.New("lot code already exists")
)

// Validation errors. These are business-rule violations surfaced verbatim
// to the caller; none of them is transient.
var (
	ErrChronologyViolation     = errors.New("event timestamp precedes last recorded event")
	ErrMissingRequiredKDE      = errors.New("missing required key data elements")
	ErrUnsupportedUnit         = errors.New("unsupported unit")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInsufficientInventory   = errors.New("insufficient available inventory")
	ErrUnlinkedProvenance      = errors.New("no source lot traces to an origin event")
	ErrNoInputSources          = errors.New("transformation requires at least one source")
	ErrIllegalStatusTransition = errors.New("illegal lot status transition")
	ErrWasteReasonRequired     = errors.New("waste variance requires a justification")
	ErrEventNotPermitted       = errors.New("facility type cannot originate this event type")
	ErrLotNotActive            = errors.New("lot is not active")

	// ErrTransformationViaRecordEvent rejects raw transformation
	// submissions; edges carry per-source quantities a KDE map cannot
	// express, so transformations go through RecordTransformation.
	ErrTransformationViaRecordEvent = errors.New("transformation events are recorded through RecordTransformation")
)

// Operational errors.
var (
	// ErrConcurrentModification reports a lost conditional write. It is
	// retryable; the ledger engine retries a bounded number of times
	// before surfacing it.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrTraceDepthExceeded reports a trace walk that hit the configured
	// depth cap. The lot graph is acyclic by construction, so hitting the
	// cap indicates corrupted data; the trace fails closed.
	ErrTraceDepthExceeded = errors.New("trace depth cap exceeded")
)

// ChronologyError reports an event whose timestamp precedes the lot's
// latest recorded event, with enough detail to render a remediation
// message. Unwraps to ErrChronologyViolation.
type ChronologyError struct {
	LotID         string
	ProposedType  EventType
	Proposed      time.Time
	PriorType     EventType
	PriorAt       time.Time
	Delta         time.Duration // Proposed − PriorAt, negative on violation
	SameTypeClash bool          // true when rejected under the strict same-type policy
}

func (e *ChronologyError) Error() string {
	return fmt.Sprintf(
		"chronology violation on lot %s: %s at %s precedes %s at %s (delta %s); %s",
		e.LotID, e.ProposedType, e.Proposed.Format(time.RFC3339),
		e.PriorType, e.PriorAt.Format(time.RFC3339), e.Delta, e.Remediation(),
	)
}

func (e *ChronologyError) Unwrap() error { return ErrChronologyViolation }

// Remediation returns a human-readable hint for correcting the submission.
func (e *ChronologyError) Remediation() string {
	if e.SameTypeClash {
		return fmt.Sprintf("re-enter the %s event with a timestamp strictly after %s",
			e.ProposedType, e.PriorAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("re-enter the event with a timestamp at or after %s",
		e.PriorAt.Format(time.RFC3339))
}

// KDEError reports the required key data elements absent from an event
// submission. Unwraps to ErrMissingRequiredKDE.
type KDEError struct {
	EventType EventType
	Missing   []string
}

func (e *KDEError) Error() string {
	return fmt.Sprintf("event type %s missing required KDE fields: %s",
		e.EventType, strings.Join(e.Missing, ", "))
}

func (e *KDEError) Unwrap() error { return ErrMissingRequiredKDE }

// InventoryError reports a consumption request that exceeds a lot's
// available balance. Unwraps to ErrInsufficientInventory.
type InventoryError struct {
	LotID     string
	LotCode   string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory on lot %s: requested %s, available %s (deficit %s)",
		e.LotCode, e.Requested, e.Available, e.Deficit())
}

func (e *InventoryError) Unwrap() error { return ErrInsufficientInventory }

// Deficit returns the shortfall amount, always positive.
func (e *InventoryError) Deficit() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// StatusError reports a rejected lot status transition. Unwraps to
// ErrIllegalStatusTransition.
type StatusError struct {
	LotID string
	From  LotStatus
	To    LotStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("illegal status transition on lot %s: %s -> %s", e.LotID, e.From, e.To)
}

func (e *StatusError) Unwrap() error { return ErrIllegalStatusTransition }

// CapabilityError reports an event submitted by a facility whose type is
// not permitted to originate it. Unwraps to ErrEventNotPermitted.
type CapabilityError struct {
	FacilityID   string
	FacilityType FacilityType
	EventType    EventType
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("facility %s (type %s) cannot originate %s events",
		e.FacilityID, e.FacilityType, e.EventType)
}

func (e *CapabilityError) Unwrap() error { return ErrEventNotPermitted }

// WasteReasonError reports a transformation edge whose waste variance
// exceeds the reason-required threshold without a justification string.
// Unwraps to ErrWasteReasonRequired.
type WasteReasonError struct {
	SourceLotCode string
	VariancePct   decimal.Decimal
	ThresholdPct  decimal.Decimal
}

func (e *WasteReasonError) Error() string {
	return fmt.Sprintf("waste variance %s%% on source %s exceeds %s%%: a waste_reason is required",
		e.VariancePct.StringFixed(1), e.SourceLotCode, e.ThresholdPct.StringFixed(1))
}

func (e *WasteReasonError) Unwrap() error { return ErrWasteReasonRequired }
