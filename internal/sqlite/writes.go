package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// execer is satisfied by both *sql.DB and *sql.Tx, so the insert and
// update helpers serve the single-entity accessors and ApplyWrite alike.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// ApplyWrite commits a WriteSet in one transaction. The version checks
// on UpdateLots run last, so a conflict rolls back the event, edge and
// shipment rows along with everything else and the caller can retry the
// whole write from fresh lot state.
func (b *Backend) ApplyWrite(w types.WriteSet) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning write: %w", err)
	}
	if err := applyWriteTx(tx, w); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write: %w", err)
	}
	for _, l := range w.UpdateLots {
		l.Version++
	}
	return nil
}

func applyWriteTx(tx *sql.Tx, w types.WriteSet) error {
	for _, l := range w.CreateLots {
		if err := insertLot(tx, l); err != nil {
			return err
		}
	}
	if w.Event != nil {
		if err := insertEvent(tx, w.Event); err != nil {
			return err
		}
	}
	for _, e := range w.Edges {
		if err := upsertEdge(tx, e); err != nil {
			return err
		}
	}
	if w.Shipment != nil {
		if err := insertShipment(tx, w.Shipment); err != nil {
			return err
		}
	}
	for _, l := range w.UpdateLots {
		if err := updateLotCAS(tx, l); err != nil {
			return err
		}
	}
	return nil
}
