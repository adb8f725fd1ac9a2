package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shipment links a shipping event to its destination and reference
// documents. Exactly one shipment exists per shipping event. Quantity
// must not exceed the lot's available balance at ship time; the ledger
// engine enforces this before the event is appended.
type Shipment struct {
	ShipmentID    string          `json:"shipment_id"`
	EventID       string          `json:"event_id"`
	LotID         string          `json:"lot_id"`
	Destination   string          `json:"destination"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	TransportInfo string          `json:"transport_info"`
	ReferenceDocs []string        `json:"reference_docs,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
