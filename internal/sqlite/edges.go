package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
)

const edgeColumns = `edge_id, event_id, output_lot_id, source_lot_id,
    quantity_used, waste_pct, actual_waste_qty, unit, created_at`

// SaveEdge inserts or updates a transformation edge. A new EdgeID is
// generated when empty and written back to the struct. Updates only ever
// touch the actual waste confirmation.
func (b *Backend) SaveEdge(e *types.TransformationEdge) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return upsertEdge(db, e)
}

func upsertEdge(x execer, e *types.TransformationEdge) error {
	if e == nil {
		return types.ErrInvalidData
	}

	if e.EdgeID == "" {
		e.EdgeID = newID()
	}

	var actualWaste any
	if e.ActualWasteQty != nil {
		actualWaste = e.ActualWasteQty.String()
	}

	_, err := x.Exec(`INSERT INTO transformation_edges
        (edge_id, event_id, output_lot_id, source_lot_id, quantity_used,
         waste_pct, actual_waste_qty, unit, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(edge_id) DO UPDATE SET actual_waste_qty = excluded.actual_waste_qty`,
		e.EdgeID, e.EventID, e.OutputLotID, e.SourceLotID,
		e.QuantityUsed.String(), e.WastePct.String(), actualWaste,
		e.Unit, e.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("persisting edge %s: %w", e.EdgeID, err)
	}
	return nil
}

// GetEdge retrieves a transformation edge by ID.
func (b *Backend) GetEdge(id string) (*types.TransformationEdge, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT `+edgeColumns+` FROM transformation_edges WHERE edge_id = ?`, id)
	e, err := hydrateEdge(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrEdgeNotFound
		}
		return nil, fmt.Errorf("getting edge %s: %w", id, err)
	}
	return e, nil
}

// EdgesForEvent returns the edges owned by a transformation event.
func (b *Backend) EdgesForEvent(eventID string) ([]*types.TransformationEdge, error) {
	return b.queryEdges(`event_id = ?`, eventID)
}

// EdgesBySource returns the edges where the lot is consumed as a source.
func (b *Backend) EdgesBySource(lotID string) ([]*types.TransformationEdge, error) {
	return b.queryEdges(`source_lot_id = ?`, lotID)
}

// EdgesByOutput returns the edges producing the lot.
func (b *Backend) EdgesByOutput(lotID string) ([]*types.TransformationEdge, error) {
	return b.queryEdges(`output_lot_id = ?`, lotID)
}

func (b *Backend) queryEdges(where string, arg any) ([]*types.TransformationEdge, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT `+edgeColumns+` FROM transformation_edges
        WHERE `+where+` ORDER BY created_at, edge_id`, arg)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var out []*types.TransformationEdge
	for rows.Next() {
		e, err := hydrateEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// hydrateEdge scans an edge row into a struct.
func hydrateEdge(row rowScanner) (*types.TransformationEdge, error) {
	var e types.TransformationEdge
	var used, wastePct, createdAt string
	var actualWaste sql.NullString
	err := row.Scan(&e.EdgeID, &e.EventID, &e.OutputLotID, &e.SourceLotID,
		&used, &wastePct, &actualWaste, &e.Unit, &createdAt)
	if err != nil {
		return nil, err
	}

	if e.QuantityUsed, err = decimal.NewFromString(used); err != nil {
		return nil, fmt.Errorf("parsing quantity_used: %w", err)
	}
	if e.WastePct, err = decimal.NewFromString(wastePct); err != nil {
		return nil, fmt.Errorf("parsing waste_pct: %w", err)
	}
	if actualWaste.Valid {
		aw, err := decimal.NewFromString(actualWaste.String)
		if err != nil {
			return nil, fmt.Errorf("parsing actual_waste_qty: %w", err)
		}
		e.ActualWasteQty = &aw
	}
	if e.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &e, nil
}
