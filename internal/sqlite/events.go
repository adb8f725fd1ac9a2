package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// AppendEvent inserts an immutable event record. A new EventID is
// generated when empty and written back to the struct. Events are never
// updated or deleted.
func (b *Backend) AppendEvent(e *types.Event) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return insertEvent(db, e)
}

func insertEvent(x execer, e *types.Event) error {
	if e == nil || e.KDE == nil {
		return types.ErrInvalidData
	}

	if e.EventID == "" {
		e.EventID = newID()
	}

	kdeJSON, err := json.Marshal(e.KDE)
	if err != nil {
		return fmt.Errorf("encoding kde for event %s: %w", e.EventID, err)
	}

	_, err = x.Exec(`INSERT INTO events
        (event_id, lot_id, type, timestamp, facility_id, kde, waste_reason, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.LotID, string(e.Type), e.Timestamp.Format(timeFormat),
		e.FacilityID, string(kdeJSON), e.WasteReason, e.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("appending event %s: %w", e.EventID, err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (b *Backend) GetEvent(id string) (*types.Event, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT event_id, lot_id, type, timestamp, facility_id,
        kde, waste_reason, created_at FROM events WHERE event_id = ?`, id)
	e, err := hydrateEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrEventNotFound
		}
		return nil, fmt.Errorf("getting event %s: %w", id, err)
	}
	return e, nil
}

// EventsForLot returns the lot's events ordered by timestamp ascending,
// with insertion order (the v7 event ID) breaking ties.
func (b *Backend) EventsForLot(lotID string) ([]*types.Event, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT event_id, lot_id, type, timestamp, facility_id,
        kde, waste_reason, created_at FROM events
        WHERE lot_id = ?`, lotID)
	if err != nil {
		return nil, fmt.Errorf("listing events for lot %s: %w", lotID, err)
	}
	defer rows.Close()

	var out []*types.Event
	for rows.Next() {
		e, err := hydrateEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RFC 3339 strings with mixed sub-second precision do not collate
	// chronologically, so ordering happens on the parsed timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

// hydrateEvent scans an event row into a struct, decoding the KDE JSON
// into the typed variant for the event type.
func hydrateEvent(row rowScanner) (*types.Event, error) {
	var e types.Event
	var etype, timestamp, kdeJSON, createdAt string
	err := row.Scan(&e.EventID, &e.LotID, &etype, &timestamp, &e.FacilityID,
		&kdeJSON, &e.WasteReason, &createdAt)
	if err != nil {
		return nil, err
	}

	e.Type = types.EventType(etype)
	if e.Timestamp, err = time.Parse(timeFormat, timestamp); err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}
	if e.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	var kdeMap map[string]any
	if err := json.Unmarshal([]byte(kdeJSON), &kdeMap); err != nil {
		return nil, fmt.Errorf("decoding kde for event %s: %w", e.EventID, err)
	}
	kde, err := types.DecodeKDE(e.Type, kdeMap)
	if err != nil {
		return nil, fmt.Errorf("hydrating kde for event %s: %w", e.EventID, err)
	}
	e.KDE = kde
	return &e, nil
}
