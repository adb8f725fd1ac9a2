package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// EdgeWaste is the per-edge slice of a waste analysis.
type EdgeWaste struct {
	EdgeID        string          `json:"edge_id"`
	SourceLotID   string          `json:"source_lot_id"`
	ExpectedWaste decimal.Decimal `json:"expected_waste"`
	ActualWaste   decimal.Decimal `json:"actual_waste"`
	Variance      decimal.Decimal `json:"variance"`

	// VariancePct is meaningful only when VarianceDefined; a zero
	// expected waste leaves the percentage undefined.
	VariancePct     decimal.Decimal `json:"variance_pct"`
	VarianceDefined bool            `json:"variance_defined"`

	// RequiresWasteReason flags an edge whose |variance %| exceeds the
	// reason-required threshold; finalizing such an edge without a
	// justification fails.
	RequiresWasteReason bool `json:"requires_waste_reason"`
}

// WasteAnalysis aggregates declared-vs-actual waste across the edges of
// one transformation.
type WasteAnalysis struct {
	ExpectedWaste decimal.Decimal `json:"expected_waste"`
	ActualWaste   decimal.Decimal `json:"actual_waste"`
	Variance      decimal.Decimal `json:"variance"`

	VariancePct     decimal.Decimal `json:"variance_pct"`
	VarianceDefined bool            `json:"variance_defined"`

	// IsSignificantVariance flags an aggregate |variance %| beyond the
	// significance threshold.
	IsSignificantVariance bool `json:"is_significant_variance"`

	// RequiresWasteReason is true when any edge individually crosses the
	// reason-required threshold.
	RequiresWasteReason bool `json:"requires_waste_reason"`

	Edges []EdgeWaste `json:"edges"`
}

// AnalyzeWaste computes the waste variance for a set of transformation
// edges. Pure: no store access, no side effects. Unconfirmed actual
// waste counts as zero.
func (e *Engine) AnalyzeWaste(edges []*types.TransformationEdge) WasteAnalysis {
	significant := decimal.NewFromFloat(e.cfg.GetSignificantVariancePct())
	reason := decimal.NewFromFloat(e.cfg.GetReasonRequiredPct())

	analysis := WasteAnalysis{
		ExpectedWaste: decimal.Zero,
		ActualWaste:   decimal.Zero,
	}
	for _, edge := range edges {
		expected := edge.ExpectedWaste()
		actual := edge.ActualWaste()

		ew := EdgeWaste{
			EdgeID:        edge.EdgeID,
			SourceLotID:   edge.SourceLotID,
			ExpectedWaste: expected,
			ActualWaste:   actual,
			Variance:      actual.Sub(expected),
		}
		if pct, defined := edgeVariancePct(edge); defined {
			ew.VariancePct = pct
			ew.VarianceDefined = true
			ew.RequiresWasteReason = pct.Abs().GreaterThan(reason)
		}

		analysis.ExpectedWaste = analysis.ExpectedWaste.Add(expected)
		analysis.ActualWaste = analysis.ActualWaste.Add(actual)
		analysis.RequiresWasteReason = analysis.RequiresWasteReason || ew.RequiresWasteReason
		analysis.Edges = append(analysis.Edges, ew)
	}

	analysis.Variance = analysis.ActualWaste.Sub(analysis.ExpectedWaste)
	if !analysis.ExpectedWaste.IsZero() {
		analysis.VariancePct = analysis.Variance.
			Div(analysis.ExpectedWaste).
			Mul(decimal.NewFromInt(100))
		analysis.VarianceDefined = true
		analysis.IsSignificantVariance = analysis.VariancePct.Abs().GreaterThan(significant)
	}
	return analysis
}

// AnalyzeWasteForEvent loads a transformation event's edges and analyzes
// them. Returns ErrEventNotFound for an unknown event and an empty
// analysis for an event without edges.
func (e *Engine) AnalyzeWasteForEvent(eventID string) (WasteAnalysis, error) {
	if _, err := e.store.GetEvent(eventID); err != nil {
		return WasteAnalysis{}, err
	}
	edges, err := e.store.EdgesForEvent(eventID)
	if err != nil {
		return WasteAnalysis{}, fmt.Errorf("loading edges for event %s: %w", eventID, err)
	}
	return e.AnalyzeWaste(edges), nil
}

// ConfirmWaste fills in the actual waste on a transformation edge after
// the fact and charges it to the source lot's available balance. When
// the resulting per-edge variance crosses the reason-required threshold,
// a non-empty reason must accompany the confirmation or the call fails
// with a *types.WasteReasonError. Re-confirming adjusts the source
// balance by the delta from the previously confirmed value.
func (e *Engine) ConfirmWaste(edgeID string, actualWaste decimal.Decimal, reason string) (*types.TransformationEdge, error) {
	if actualWaste.IsNegative() {
		return nil, fmt.Errorf("%w: actual waste must not be negative", types.ErrInvalidQuantity)
	}

	edge, err := e.store.GetEdge(edgeID)
	if err != nil {
		return nil, fmt.Errorf("resolving edge %s: %w", edgeID, err)
	}

	var updated *types.TransformationEdge
	err = e.locks.withLots([]string{edge.SourceLotID}, func() error {
		return e.withRetry(func() error {
			// Re-read inside the critical section.
			edge, err := e.store.GetEdge(edgeID)
			if err != nil {
				return err
			}

			candidate := *edge
			candidate.ActualWasteQty = &actualWaste
			if pct, defined := edgeVariancePct(&candidate); defined {
				reasonPct := decimal.NewFromFloat(e.cfg.GetReasonRequiredPct())
				if pct.Abs().GreaterThan(reasonPct) && reason == "" {
					lot, lookupErr := e.store.GetLot(edge.SourceLotID)
					code := edge.SourceLotID
					if lookupErr == nil {
						code = lot.Code
					}
					return &types.WasteReasonError{
						SourceLotCode: code,
						VariancePct:   pct,
						ThresholdPct:  reasonPct,
					}
				}
			}

			lot, err := e.store.GetLot(edge.SourceLotID)
			if err != nil {
				return err
			}
			delta := actualWaste.Sub(edge.ActualWaste())
			if lot.Available.LessThan(delta) {
				return &types.InventoryError{
					LotID: lot.LotID, LotCode: lot.Code,
					Requested: delta, Available: lot.Available,
				}
			}

			edge.ActualWasteQty = &actualWaste
			lot.Available = lot.Available.Sub(delta)
			lot.UpdatedAt = time.Now().UTC()

			write := types.WriteSet{
				Edges:      []*types.TransformationEdge{edge},
				UpdateLots: []*types.Lot{lot},
			}
			if err := e.store.ApplyWrite(write); err != nil {
				return fmt.Errorf("confirming waste on edge %s: %w", edgeID, err)
			}
			updated = edge
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// edgeVariancePct returns the per-edge variance percentage. The second
// return is false when expected waste is zero, leaving the percentage
// undefined.
func edgeVariancePct(edge *types.TransformationEdge) (decimal.Decimal, bool) {
	expected := edge.ExpectedWaste()
	if expected.IsZero() {
		return decimal.Zero, false
	}
	variance := edge.ActualWaste().Sub(expected)
	return variance.Div(expected).Mul(decimal.NewFromInt(100)), true
}
