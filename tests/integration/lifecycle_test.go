// End-to-end lifecycle tests: event chronology, transformation
// conservation, waste variance, and lineage tracing against a real
// SQLite-backed store.
package integration

import (
	"errors"
	"testing"
	"time"

	"github.com/provenanceworks/tracelot/pkg/ledger"
	"github.com/provenanceworks/tracelot/pkg/types"
)

var day1 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func TestChronologyEnforcement(t *testing.T) {
	engine, _ := setupEngine(t, types.Config{})
	product := mustRegisterProduct(t, engine, "ROMA", "Roma Tomatoes", 0)
	farm := mustRegisterFacility(t, engine, "Sunrise Farms", types.FacilityFarm)
	packer := mustRegisterFacility(t, engine, "Valley Packing", types.FacilityPackingHouse)

	lot := mustCreateLot(t, engine, product.ProductID, farm.FacilityID, qty("1000"), "")
	mustRecordEvent(t, engine, lot.LotID, types.EventHarvest, day1, farm.FacilityID, harvestKDE("2026-01-01"))
	mustRecordEvent(t, engine, lot.LotID, types.EventCooling, day1.AddDate(0, 0, 1), packer.FacilityID, coolingKDE("2026-01-02", lot.Code))

	// Packing dated before the cooling event must be rejected and leave
	// the history untouched.
	_, err := engine.RecordEvent(lot.LotID, types.EventPacking, day1, packer.FacilityID, packingKDE("2026-01-01", lot.Code))
	var chronoErr *types.ChronologyError
	if !errors.As(err, &chronoErr) {
		t.Fatalf("expected ChronologyError, got %v", err)
	}
	if !errors.Is(err, types.ErrChronologyViolation) {
		t.Fatalf("expected ErrChronologyViolation, got %v", err)
	}

	events, err := engine.Events(lot.LotID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after rejected append, got %d", len(events))
	}
}

func TestTransformationInsufficientInventory(t *testing.T) {
	engine, _ := setupEngine(t, types.Config{})
	tomatoes := mustRegisterProduct(t, engine, "ROMA", "Roma Tomatoes", 0)
	salsa := mustRegisterProduct(t, engine, "SALSA", "Fresh Salsa", 0)
	farm := mustRegisterFacility(t, engine, "Sunrise Farms", types.FacilityFarm)
	processor := mustRegisterFacility(t, engine, "Central Processing", types.FacilityProcessor)

	src := mustCreateLot(t, engine, tomatoes.ProductID, farm.FacilityID, qty("100"), "TLC-SRC")
	mustRecordEvent(t, engine, src.LotID, types.EventHarvest, day1, farm.FacilityID, harvestKDE("2026-01-01"))

	_, err := engine.RecordTransformation(ledger.OutputSpec{
		ProductID:  salsa.ProductID,
		FacilityID: processor.FacilityID,
		Quantity:   qty("120"),
		Unit:       "kg",
		Timestamp:  day1.AddDate(0, 0, 2),
	}, []ledger.SourceSpec{
		{LotCode: src.Code, QuantityUsed: qty("150"), Unit: "kg"},
	})

	var invErr *types.InventoryError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InventoryError, got %v", err)
	}
	if !invErr.Deficit().Equal(qty("50")) {
		t.Fatalf("expected deficit 50, got %s", invErr.Deficit())
	}

	// The failed transformation must not have charged the source.
	src, err = engine.Lot(src.LotID)
	if err != nil {
		t.Fatalf("Lot: %v", err)
	}
	if !src.Available.Equal(qty("100")) {
		t.Fatalf("expected source untouched at 100, got %s", src.Available)
	}
}

func TestWasteVarianceSignificance(t *testing.T) {
	engine, _ := setupEngine(t, types.Config{})
	tomatoes := mustRegisterProduct(t, engine, "ROMA", "Roma Tomatoes", 0)
	salsa := mustRegisterProduct(t, engine, "SALSA", "Fresh Salsa", 0)
	farm := mustRegisterFacility(t, engine, "Sunrise Farms", types.FacilityFarm)
	processor := mustRegisterFacility(t, engine, "Central Processing", types.FacilityProcessor)

	src := mustCreateLot(t, engine, tomatoes.ProductID, farm.FacilityID, qty("200"), "TLC-SRC")
	mustRecordEvent(t, engine, src.LotID, types.EventHarvest, day1, farm.FacilityID, harvestKDE("2026-01-01"))

	// 5% declared waste on 100 used: expected waste 5.
	out, err := engine.RecordTransformation(ledger.OutputSpec{
		ProductID:  salsa.ProductID,
		FacilityID: processor.FacilityID,
		Quantity:   qty("90"),
		Unit:       "kg",
		Timestamp:  day1.AddDate(0, 0, 2),
	}, []ledger.SourceSpec{
		{LotCode: src.Code, QuantityUsed: qty("100"), Unit: "kg", WastePct: qty("5")},
	})
	if err != nil {
		t.Fatalf("RecordTransformation: %v", err)
	}

	events, err := engine.Events(out.LotID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	transformEventID := events[0].EventID

	analysis, err := engine.AnalyzeWasteForEvent(transformEventID)
	if err != nil {
		t.Fatalf("AnalyzeWasteForEvent: %v", err)
	}
	if len(analysis.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(analysis.Edges))
	}
	edgeID := analysis.Edges[0].EdgeID

	// Actual waste 8 against expected 5: variance 3, 60%. That crosses
	// both the significance and reason-required thresholds, so an
	// unjustified confirmation must fail.
	_, err = engine.ConfirmWaste(edgeID, qty("8"), "")
	var reasonErr *types.WasteReasonError
	if !errors.As(err, &reasonErr) {
		t.Fatalf("expected WasteReasonError, got %v", err)
	}

	edge, err := engine.ConfirmWaste(edgeID, qty("8"), "blade misalignment, excess trim")
	if err != nil {
		t.Fatalf("ConfirmWaste with reason: %v", err)
	}
	if edge.ActualWasteQty == nil || !edge.ActualWasteQty.Equal(qty("8")) {
		t.Fatalf("expected confirmed waste 8, got %v", edge.ActualWasteQty)
	}

	analysis, err = engine.AnalyzeWasteForEvent(transformEventID)
	if err != nil {
		t.Fatalf("AnalyzeWasteForEvent: %v", err)
	}
	if !analysis.Variance.Equal(qty("3")) {
		t.Fatalf("expected variance 3, got %s", analysis.Variance)
	}
	if !analysis.VariancePct.Equal(qty("60")) {
		t.Fatalf("expected variance 60%%, got %s", analysis.VariancePct)
	}
	if !analysis.IsSignificantVariance {
		t.Fatal("expected significant variance")
	}

	// Source charged for used (100) plus confirmed waste (8).
	src, err = engine.Lot(src.LotID)
	if err != nil {
		t.Fatalf("Lot: %v", err)
	}
	if !src.Available.Equal(qty("92")) {
		t.Fatalf("expected source available 92, got %s", src.Available)
	}
}

func TestTraceRoundTrip(t *testing.T) {
	engine, _ := setupEngine(t, types.Config{})
	tomatoes := mustRegisterProduct(t, engine, "ROMA", "Roma Tomatoes", 0)
	salsa := mustRegisterProduct(t, engine, "SALSA", "Fresh Salsa", 0)
	farm := mustRegisterFacility(t, engine, "Sunrise Farms", types.FacilityFarm)
	processor := mustRegisterFacility(t, engine, "Central Processing", types.FacilityProcessor)

	src := mustCreateLot(t, engine, tomatoes.ProductID, farm.FacilityID, qty("1000"), "TLC-L1")
	mustRecordEvent(t, engine, src.LotID, types.EventHarvest, day1, farm.FacilityID, harvestKDE("2026-01-01"))
	mustRecordEvent(t, engine, src.LotID, types.EventCooling, day1.AddDate(0, 0, 1), farm.FacilityID, coolingKDE("2026-01-02", src.Code))

	out, err := engine.RecordTransformation(ledger.OutputSpec{
		ProductID:  salsa.ProductID,
		FacilityID: processor.FacilityID,
		Code:       "TLC-L2",
		Quantity:   qty("400"),
		Unit:       "kg",
		Timestamp:  day1.AddDate(0, 0, 3),
	}, []ledger.SourceSpec{
		{LotCode: src.Code, QuantityUsed: qty("500"), Unit: "kg"},
	})
	if err != nil {
		t.Fatalf("RecordTransformation: %v", err)
	}

	_, err = engine.RecordShipment(ledger.ShipmentSpec{
		LotID:       out.LotID,
		FacilityID:  processor.FacilityID,
		Timestamp:   day1.AddDate(0, 0, 4),
		Quantity:    qty("200"),
		Unit:        "kg",
		Destination: "Metro Grocers DC",
	})
	if err != nil {
		t.Fatalf("RecordShipment: %v", err)
	}

	forward, err := engine.TraceForward("TLC-L1")
	if err != nil {
		t.Fatalf("TraceForward: %v", err)
	}
	if len(forward.Events) != 2 {
		t.Fatalf("expected 2 events on source chain, got %d", len(forward.Events))
	}
	if len(forward.Descendants) != 1 {
		t.Fatalf("expected 1 descendant, got %d", len(forward.Descendants))
	}
	desc := forward.Descendants[0]
	if desc.Chain.Lot.Code != "TLC-L2" {
		t.Fatalf("expected descendant TLC-L2, got %s", desc.Chain.Lot.Code)
	}
	if !desc.Edge.QuantityUsed.Equal(qty("500")) {
		t.Fatalf("expected edge quantity 500, got %s", desc.Edge.QuantityUsed)
	}
	if len(desc.Chain.Events) != 2 {
		t.Fatalf("expected transformation and shipping events downstream, got %d", len(desc.Chain.Events))
	}

	backward, err := engine.TraceBackward("TLC-L2")
	if err != nil {
		t.Fatalf("TraceBackward: %v", err)
	}
	if len(backward.Ancestors) != 1 {
		t.Fatalf("expected 1 ancestor, got %d", len(backward.Ancestors))
	}
	anc := backward.Ancestors[0]
	if anc.Chain.Lot.Code != "TLC-L1" {
		t.Fatalf("expected ancestor TLC-L1, got %s", anc.Chain.Lot.Code)
	}
	if !anc.Edge.QuantityUsed.Equal(qty("500")) {
		t.Fatalf("expected edge quantity 500, got %s", anc.Edge.QuantityUsed)
	}
}
