package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
	"github.com/provenanceworks/tracelot/pkg/units"
)

// OutputSpec describes the output side of a transformation: the lot the
// transformation event attaches to. When Code names an existing active
// lot it is reused and the output quantity is received into it; otherwise
// a new lot is created.
type OutputSpec struct {
	ProductID  string
	FacilityID string
	Code       string
	Quantity   decimal.Decimal
	Unit       string
	Timestamp  time.Time

	// WasteReason justifies out-of-tolerance waste variance declared on
	// the source edges. Required only when an edge's variance exceeds
	// the reason-required threshold.
	WasteReason string
}

// SourceSpec describes one source lot consumed by a transformation.
type SourceSpec struct {
	LotCode      string
	QuantityUsed decimal.Decimal
	Unit         string
	WastePct     decimal.Decimal

	// ActualWasteQty is the confirmed waste, when already known at
	// recording time. Usually nil and confirmed later via ConfirmWaste.
	ActualWasteQty *decimal.Decimal
}

// sourceState carries a resolved source through validation and mutation.
type sourceState struct {
	spec SourceSpec
	lot  *types.Lot
	used decimal.Decimal
}

// RecordTransformation consumes one or more source lots into an output
// lot, recording the transformation event and one edge per source.
//
// Every source is validated before anything mutates: each must resolve,
// be active, and have available stock covering its quantity plus any
// declared waste; at least one must trace to an origin event (harvest,
// receiving or first receiving) in its own history. A failure on any
// source leaves every lot untouched. All source decrements and the
// output creation run under the locks of every involved lot, so
// concurrent transformations cannot double-spend a source.
func (e *Engine) RecordTransformation(output OutputSpec, sources []SourceSpec) (*types.Lot, error) {
	if len(sources) == 0 {
		return nil, types.ErrNoInputSources
	}

	facility, err := e.store.GetFacility(output.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("resolving facility %s: %w", output.FacilityID, err)
	}
	if !facility.CanOriginate(types.EventTransformation) {
		return nil, &types.CapabilityError{
			FacilityID:   output.FacilityID,
			FacilityType: facility.Type,
			EventType:    types.EventTransformation,
		}
	}

	outQty, err := units.Normalize(output.Quantity, output.Unit)
	if err != nil {
		return nil, err
	}

	// Resolve sources and normalize their quantities up front.
	states := make([]sourceState, 0, len(sources))
	lockIDs := make([]string, 0, len(sources)+1)
	for _, src := range sources {
		lot, err := e.store.GetLotByCode(src.LotCode)
		if err != nil {
			return nil, fmt.Errorf("resolving source lot %s: %w", src.LotCode, err)
		}
		used, err := units.Normalize(src.QuantityUsed, src.Unit)
		if err != nil {
			return nil, err
		}
		states = append(states, sourceState{spec: src, lot: lot, used: used})
		lockIDs = append(lockIDs, lot.LotID)
	}

	// Waste-reason policy applies to waste declared at recording time;
	// edges confirmed later are checked in ConfirmWaste.
	reasonPct := decimal.NewFromFloat(e.cfg.GetReasonRequiredPct())
	for _, st := range states {
		if st.spec.ActualWasteQty == nil {
			continue
		}
		edge := &types.TransformationEdge{
			QuantityUsed:   st.used,
			WastePct:       st.spec.WastePct,
			ActualWasteQty: st.spec.ActualWasteQty,
		}
		if pct, defined := edgeVariancePct(edge); defined && pct.Abs().GreaterThan(reasonPct) && output.WasteReason == "" {
			return nil, &types.WasteReasonError{
				SourceLotCode: st.spec.LotCode,
				VariancePct:   pct,
				ThresholdPct:  reasonPct,
			}
		}
	}

	// Reuse the output lot when its code already exists.
	var outputLot *types.Lot
	if output.Code != "" {
		existing, err := e.store.GetLotByCode(output.Code)
		switch {
		case err == nil:
			outputLot = existing
			lockIDs = append(lockIDs, existing.LotID)
		case !errors.Is(err, types.ErrLotNotFound):
			return nil, err
		}
	}

	err = e.locks.withLots(lockIDs, func() error {
		return e.withRetry(func() error {
			return e.applyTransformation(output, facility, outQty, &outputLot, states)
		})
	})
	if err != nil {
		return nil, err
	}
	return outputLot, nil
}

// applyTransformation runs the validate-all-then-mutate body under the
// involved lot locks. On a version conflict the whole body retries with
// fresh reads.
func (e *Engine) applyTransformation(output OutputSpec, facility *types.Facility, outQty decimal.Decimal, outputLot **types.Lot, sources []sourceState) error {
	// Re-read every source under lock; the pre-lock resolution could be
	// stale. Nothing mutates until every source passes.
	hasOrigin := false
	inputCodes := make([]string, 0, len(sources))
	for i := range sources {
		lot, err := e.store.GetLot(sources[i].lot.LotID)
		if err != nil {
			return err
		}
		sources[i].lot = lot

		if lot.Status != types.LotActive {
			return fmt.Errorf("%w: source lot %s is %s", types.ErrLotNotActive, lot.Code, lot.Status)
		}

		needed := sources[i].used
		if sources[i].spec.ActualWasteQty != nil {
			needed = needed.Add(*sources[i].spec.ActualWasteQty)
		}
		if lot.Available.LessThan(needed) {
			return &types.InventoryError{
				LotID: lot.LotID, LotCode: lot.Code,
				Requested: needed, Available: lot.Available,
			}
		}

		events, err := e.store.EventsForLot(lot.LotID)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if types.OriginEventTypes[ev.Type] {
				hasOrigin = true
				break
			}
		}
		inputCodes = append(inputCodes, lot.Code)
	}
	if !hasOrigin {
		return fmt.Errorf("%w: sources %v", types.ErrUnlinkedProvenance, inputCodes)
	}

	// All sources check out; stage the output lot. Nothing is written
	// until the whole transformation is assembled, so a version conflict
	// on any lot rolls the attempt back cleanly for the retry.
	now := time.Now().UTC()
	created := *outputLot == nil
	var outLot *types.Lot
	if created {
		product, err := e.store.GetProduct(output.ProductID)
		if err != nil {
			return fmt.Errorf("resolving output product %s: %w", output.ProductID, err)
		}
		code := output.Code
		if code == "" {
			code = newLotCode(product.Code)
		}
		outLot = &types.Lot{
			LotID:      newID(),
			Code:       code,
			ProductID:  output.ProductID,
			FacilityID: output.FacilityID,
			Unit:       units.Base,
			InitialQty: outQty,
			Available:  outQty,
			Reserved:   decimal.Zero,
			Shipped:    decimal.Zero,
			Status:     types.LotActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	} else {
		lot, err := e.store.GetLot((*outputLot).LotID)
		if err != nil {
			return err
		}
		if lot.Status != types.LotActive {
			return fmt.Errorf("%w: output lot %s is %s", types.ErrLotNotActive, lot.Code, lot.Status)
		}
		outLot = lot
	}

	location := facility.LocationCode
	if location == "" {
		location = facility.Name
	}
	event := &types.Event{
		EventID:    newID(),
		LotID:      outLot.LotID,
		Type:       types.EventTransformation,
		Timestamp:  output.Timestamp.UTC(),
		FacilityID: output.FacilityID,
		KDE: &types.TransformationKDE{
			TransformationDate:     output.Timestamp.UTC().Format(time.RFC3339),
			TransformationLocation: location,
			InputLotCodes:          inputCodes,
			OutputLotCode:          outLot.Code,
		},
		WasteReason: output.WasteReason,
		CreatedAt:   now,
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if err := e.validateChronology(outLot.LotID, types.EventTransformation, event.Timestamp); err != nil {
		return err
	}

	write := types.WriteSet{Event: event}
	if created {
		write.CreateLots = []*types.Lot{outLot}
	}

	for i := range sources {
		edge := &types.TransformationEdge{
			EdgeID:         newID(),
			EventID:        event.EventID,
			OutputLotID:    outLot.LotID,
			SourceLotID:    sources[i].lot.LotID,
			QuantityUsed:   sources[i].used,
			WastePct:       sources[i].spec.WastePct,
			ActualWasteQty: sources[i].spec.ActualWasteQty,
			Unit:           units.Base,
			CreatedAt:      now,
		}
		write.Edges = append(write.Edges, edge)

		lot := sources[i].lot
		lot.Available = lot.Available.Sub(sources[i].used).Sub(edge.ActualWaste())
		lot.UpdatedAt = now
		if lot.Available.IsZero() && lot.Reserved.IsZero() {
			if err := lot.TransitionTo(types.LotConsumed); err != nil {
				return err
			}
		}
		write.UpdateLots = append(write.UpdateLots, lot)
	}

	// Output quantity received into an existing lot shows up on both its
	// balance and its received-to-date.
	if !created {
		outLot.InitialQty = outLot.InitialQty.Add(outQty)
		outLot.Available = outLot.Available.Add(outQty)
		outLot.UpdatedAt = now
		write.UpdateLots = append(write.UpdateLots, outLot)
	}

	if err := e.store.ApplyWrite(write); err != nil {
		return fmt.Errorf("recording transformation into lot %s: %w", outLot.Code, err)
	}
	*outputLot = outLot
	return nil
}
