package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransformationEdge is a directed edge in the lot graph: one source lot
// consumed into the output lot of a transformation event. A
// transformation event always owns at least one edge. Edges point from
// source lots to output lots, and the graph is a DAG because an edge's
// source lot must exist strictly before the transformation event that
// consumes it.
type TransformationEdge struct {
	EdgeID      string `json:"edge_id"`
	EventID     string `json:"event_id"`
	OutputLotID string `json:"output_lot_id"`
	SourceLotID string `json:"source_lot_id"`

	// QuantityUsed is the base-unit quantity consumed from the source lot.
	QuantityUsed decimal.Decimal `json:"quantity_used"`

	// WastePct is the expected waste as a percentage of QuantityUsed.
	WastePct decimal.Decimal `json:"waste_pct"`

	// ActualWasteQty is the confirmed waste, filled in after the fact.
	// Nil until confirmed.
	ActualWasteQty *decimal.Decimal `json:"actual_waste_qty,omitempty"`

	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpectedWaste returns QuantityUsed × WastePct / 100.
func (e *TransformationEdge) ExpectedWaste() decimal.Decimal {
	return e.QuantityUsed.Mul(e.WastePct).Div(decimal.NewFromInt(100))
}

// ActualWaste returns the confirmed waste quantity, zero when unconfirmed.
func (e *TransformationEdge) ActualWaste() decimal.Decimal {
	if e.ActualWasteQty == nil {
		return decimal.Zero
	}
	return *e.ActualWasteQty
}
