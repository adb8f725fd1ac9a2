package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// SaveShipment inserts the shipment linked to a shipping event. A new
// ShipmentID is generated when empty and written back to the struct.
func (b *Backend) SaveShipment(s *types.Shipment) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return insertShipment(db, s)
}

func insertShipment(x execer, s *types.Shipment) error {
	if s == nil {
		return types.ErrInvalidData
	}

	if s.ShipmentID == "" {
		s.ShipmentID = newID()
	}

	var refDocs any
	if len(s.ReferenceDocs) > 0 {
		raw, err := json.Marshal(s.ReferenceDocs)
		if err != nil {
			return fmt.Errorf("encoding reference docs: %w", err)
		}
		refDocs = string(raw)
	}

	_, err := x.Exec(`INSERT INTO shipments
        (shipment_id, event_id, lot_id, destination, quantity, unit,
         transport_info, reference_docs, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ShipmentID, s.EventID, s.LotID, s.Destination, s.Quantity.String(),
		s.Unit, s.TransportInfo, refDocs, s.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("persisting shipment %s: %w", s.ShipmentID, err)
	}
	return nil
}

// ShipmentForEvent returns the shipment linked to a shipping event, or
// nil when the event has none.
func (b *Backend) ShipmentForEvent(eventID string) (*types.Shipment, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT shipment_id, event_id, lot_id, destination,
        quantity, unit, transport_info, reference_docs, created_at
        FROM shipments WHERE event_id = ?`, eventID)
	s, err := hydrateShipment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting shipment for event %s: %w", eventID, err)
	}
	return s, nil
}

// hydrateShipment scans a shipment row into a struct.
func hydrateShipment(row rowScanner) (*types.Shipment, error) {
	var s types.Shipment
	var quantity, createdAt string
	var refDocs sql.NullString
	err := row.Scan(&s.ShipmentID, &s.EventID, &s.LotID, &s.Destination,
		&quantity, &s.Unit, &s.TransportInfo, &refDocs, &createdAt)
	if err != nil {
		return nil, err
	}

	if s.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, fmt.Errorf("parsing quantity: %w", err)
	}
	if refDocs.Valid && refDocs.String != "" {
		if err := json.Unmarshal([]byte(refDocs.String), &s.ReferenceDocs); err != nil {
			return nil, fmt.Errorf("decoding reference docs: %w", err)
		}
	}
	if s.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &s, nil
}
