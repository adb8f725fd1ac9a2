package types

import (
	"errors"
	"time"
)

// EventType identifies a critical tracking event (CTE) class.
type EventType string

// Recognized event types.
const (
	EventHarvest        EventType = "harvest"
	EventCooling        EventType = "cooling"
	EventPacking        EventType = "packing"
	EventReceiving      EventType = "receiving"
	EventTransformation EventType = "transformation"
	EventShipping       EventType = "shipping"
	EventFirstReceiving EventType = "first_receiving"
)

// validEventTypes is the set of recognized event type values.
var validEventTypes = map[EventType]bool{
	EventHarvest:        true,
	EventCooling:        true,
	EventPacking:        true,
	EventReceiving:      true,
	EventTransformation: true,
	EventShipping:       true,
	EventFirstReceiving: true,
}

// ValidEventType reports whether et is a recognized event type.
func ValidEventType(et EventType) bool { return validEventTypes[et] }

// OriginEventTypes are the event types that establish provenance. A
// transformation is only permitted when at least one source lot carries
// one of these in its own history.
var OriginEventTypes = map[EventType]bool{
	EventHarvest:        true,
	EventReceiving:      true,
	EventFirstReceiving: true,
}

// Event is an immutable, append-only record attached to exactly one lot.
// Events are totally ordered per lot by Timestamp; insertion order in
// storage is irrelevant. Once appended an event is never modified.
type Event struct {
	EventID    string    `json:"event_id"`
	LotID      string    `json:"lot_id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	FacilityID string    `json:"facility_id"`
	KDE        KDESet    `json:"kde"`

	// WasteReason justifies an out-of-tolerance waste variance on a
	// transformation event. Required only when the variance exceeds the
	// configured reason-required threshold.
	WasteReason string `json:"waste_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Event validation errors.
var (
	ErrEventTypeInvalid    = errors.New("unknown event type")
	ErrEventTimestampZero  = errors.New("event timestamp must be set")
	ErrEventFacilityEmpty  = errors.New("event facility must be set")
)

// Validate checks structural well-formedness: recognized type, non-zero
// timestamp, originating facility, and a KDE set that satisfies the
// mandatory fields for the event type.
func (e *Event) Validate() error {
	if !validEventTypes[e.Type] {
		return ErrEventTypeInvalid
	}
	if e.Timestamp.IsZero() {
		return ErrEventTimestampZero
	}
	if e.FacilityID == "" {
		return ErrEventFacilityEmpty
	}
	if e.KDE == nil {
		return &KDEError{EventType: e.Type, Missing: RequiredKDEFields(e.Type)}
	}
	if e.KDE.EventType() != e.Type {
		return ErrEventTypeInvalid
	}
	return e.KDE.Validate()
}
