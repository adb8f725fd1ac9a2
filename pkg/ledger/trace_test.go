package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// seedChain builds a two-level lot graph: two harvested farm lots
// transformed into a salsa lot, which is then partially shipped.
func seedChain(t *testing.T, cfg types.Config) (*Engine, *types.Lot, *types.Lot, *types.Lot) {
	t.Helper()
	e := newTestEngine(t, cfg)
	tomatoes := seedProduct(t, e, "ROMA", 0)
	onions := seedProduct(t, e, "ONION", 0)
	salsa := seedProduct(t, e, "SALSA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	plant := seedFacility(t, e, "salsa-plant", types.FacilityProcessor)

	srcA := seedHarvestedLot(t, e, farm, tomatoes, "150", t0)
	srcB := seedHarvestedLot(t, e, farm, onions, "50", t0)

	out, err := e.RecordTransformation(OutputSpec{
		ProductID:  salsa.ProductID,
		FacilityID: plant.FacilityID,
		Quantity:   d("120"),
		Unit:       "kg",
		Timestamp:  t0.Add(2 * time.Hour),
	}, []SourceSpec{
		{LotCode: srcA.Code, QuantityUsed: d("100"), Unit: "kg", WastePct: d("5")},
		{LotCode: srcB.Code, QuantityUsed: d("40"), Unit: "kg", WastePct: d("5")},
	})
	require.NoError(t, err)

	_, err = e.RecordShipment(ShipmentSpec{
		LotID:       out.LotID,
		FacilityID:  plant.FacilityID,
		Timestamp:   t0.Add(3 * time.Hour),
		Quantity:    d("60"),
		Unit:        "kg",
		Destination: "DC North",
	})
	require.NoError(t, err)

	return e, srcA, srcB, out
}

func TestTraceForward(t *testing.T) {
	e, srcA, _, out := seedChain(t, types.Config{})

	chain, err := e.TraceForward(srcA.Code)
	require.NoError(t, err)

	assert.Equal(t, srcA.LotID, chain.Lot.LotID)
	require.Len(t, chain.Events, 1)
	assert.Equal(t, types.EventHarvest, chain.Events[0].Event.Type)

	require.Len(t, chain.Descendants, 1)
	link := chain.Descendants[0]
	assert.Equal(t, out.LotID, link.Chain.Lot.LotID)
	assert.True(t, link.Edge.QuantityUsed.Equal(d("100")))

	// The descendant carries its transformation and shipping events, with
	// edge and shipment detail attached.
	require.Len(t, link.Chain.Events, 2)
	assert.Equal(t, types.EventTransformation, link.Chain.Events[0].Event.Type)
	assert.Len(t, link.Chain.Events[0].Edges, 2)
	assert.Equal(t, types.EventShipping, link.Chain.Events[1].Event.Type)
	require.NotNil(t, link.Chain.Events[1].Shipment)
	assert.True(t, link.Chain.Events[1].Shipment.Quantity.Equal(d("60")))

	// The output lot has no further descendants
	assert.Empty(t, link.Chain.Descendants)
}

func TestTraceBackward(t *testing.T) {
	e, srcA, srcB, out := seedChain(t, types.Config{})

	chain, err := e.TraceBackward(out.Code)
	require.NoError(t, err)

	assert.Equal(t, out.LotID, chain.Lot.LotID)

	// Events in descending order: shipping before transformation
	require.Len(t, chain.Events, 2)
	assert.Equal(t, types.EventShipping, chain.Events[0].Event.Type)
	assert.Equal(t, types.EventTransformation, chain.Events[1].Event.Type)

	require.Len(t, chain.Ancestors, 2)
	ancestorIDs := map[string]bool{}
	for _, link := range chain.Ancestors {
		ancestorIDs[link.Chain.Lot.LotID] = true
		assert.Empty(t, link.Chain.Ancestors, "farm lots have no further ancestors")
	}
	assert.True(t, ancestorIDs[srcA.LotID])
	assert.True(t, ancestorIDs[srcB.LotID])
}

func TestTraceBackward_Origin(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	dc := seedFacility(t, e, "dc-north", types.FacilityDistributor)

	lot, err := e.CreateLot(product.ProductID, dc.FacilityID, d("0"), "kg", "")
	require.NoError(t, err)
	_, err = e.RecordEvent(lot.LotID, types.EventReceiving, t0, dc.FacilityID, map[string]any{
		"receiving_date":     "2026-03-11",
		"receiving_location": "Dock 3",
		"reference_lot_code": "TLC-UPSTREAM-01",
		"supplier_info":      "Valley Packing",
		"quantity":           "75",
	})
	require.NoError(t, err)

	chain, err := e.TraceBackward(lot.Code)
	require.NoError(t, err)
	require.NotNil(t, chain.Origin)
	assert.Equal(t, types.EventReceiving, chain.Origin.Event.Type)

	kde, ok := chain.Origin.Event.KDE.(*types.ReceivingKDE)
	require.True(t, ok)
	assert.Equal(t, "Valley Packing", kde.SupplierInfo)
}

func TestTrace_UnknownLot(t *testing.T) {
	e := newTestEngine(t, types.Config{})

	_, err := e.TraceForward("TLC-MISSING")
	assert.ErrorIs(t, err, types.ErrLotNotFound)
	_, err = e.TraceBackward("TLC-MISSING")
	assert.ErrorIs(t, err, types.ErrLotNotFound)
}

func TestTrace_DepthCap(t *testing.T) {
	e, srcA, _, out := seedChain(t, types.Config{TraceMaxDepth: 1})

	_, err := e.TraceForward(srcA.Code)
	assert.ErrorIs(t, err, types.ErrTraceDepthExceeded)

	_, err = e.TraceBackward(out.Code)
	assert.ErrorIs(t, err, types.ErrTraceDepthExceeded)
}

func TestTrace_EventlessLot(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	chain, err := e.TraceForward(lot.Code)
	require.NoError(t, err)
	assert.Empty(t, chain.Events)
	assert.Empty(t, chain.Descendants)
}
