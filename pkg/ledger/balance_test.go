package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenanceworks/tracelot/pkg/types"
)

func TestGetBalance(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot := seedHarvestedLot(t, e, farm, product, "100", t0)

	_, err := e.Reserve(lot.LotID, d("20"))
	require.NoError(t, err)

	balance, err := e.GetBalance(lot.LotID)
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(d("80")))
	assert.True(t, balance.Reserved.Equal(d("20")))
	assert.True(t, balance.Shipped.IsZero())

	_, err = e.GetBalance("missing")
	assert.ErrorIs(t, err, types.ErrLotNotFound)
}

func TestReconcile_CleanAfterFullLifecycle(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	tomatoes := seedProduct(t, e, "ROMA", 0)
	salsa := seedProduct(t, e, "SALSA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	plant := seedFacility(t, e, "salsa-plant", types.FacilityProcessor)

	src := seedHarvestedLot(t, e, farm, tomatoes, "200", t0)

	out, err := e.RecordTransformation(OutputSpec{
		ProductID:  salsa.ProductID,
		FacilityID: plant.FacilityID,
		Quantity:   d("80"),
		Unit:       "kg",
		Timestamp:  t0.Add(time.Hour),
	}, []SourceSpec{
		{LotCode: src.Code, QuantityUsed: d("100"), Unit: "kg", WastePct: d("10")},
	})
	require.NoError(t, err)

	events, _ := e.Events(out.LotID)
	edges, _ := e.store.EdgesForEvent(events[0].EventID)
	_, err = e.ConfirmWaste(edges[0].EdgeID, d("9"), "")
	require.NoError(t, err)

	_, err = e.RecordShipment(ShipmentSpec{
		LotID:       out.LotID,
		FacilityID:  plant.FacilityID,
		Timestamp:   t0.Add(2 * time.Hour),
		Quantity:    d("30"),
		Unit:        "kg",
		Destination: "DC North",
	})
	require.NoError(t, err)

	for _, lotID := range []string{src.LotID, out.LotID} {
		report, err := e.Reconcile(lotID)
		require.NoError(t, err)
		assert.True(t, report.Clean, "reconcile of %s found: %v", report.LotCode, report.Alerts)
		assert.True(t, report.AvailableDrift.IsZero())
		assert.True(t, report.ShippedDrift.IsZero())
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot := seedHarvestedLot(t, e, farm, product, "100", t0)

	first, err := e.Reconcile(lot.LotID)
	require.NoError(t, err)
	second, err := e.Reconcile(lot.LotID)
	require.NoError(t, err)

	assert.Equal(t, first.Clean, second.Clean)
	assert.True(t, first.Derived.Available.Equal(second.Derived.Available))
	assert.True(t, first.AvailableDrift.Equal(second.AvailableDrift))
}

func TestReconcile_ReportsDriftWithoutCorrecting(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot := seedHarvestedLot(t, e, farm, product, "100", t0)

	// Corrupt the stored balance behind the engine's back
	stored, err := e.store.GetLot(lot.LotID)
	require.NoError(t, err)
	stored.Available = d("90")
	require.NoError(t, e.store.UpdateLot(stored))

	report, err := e.Reconcile(lot.LotID)
	require.NoError(t, err)
	assert.False(t, report.Clean)
	assert.True(t, report.AvailableDrift.Equal(d("-10")))
	assert.NotEmpty(t, report.Alerts)

	// Reconcile surfaces, never patches
	after, _ := e.Lot(lot.LotID)
	assert.True(t, after.Available.Equal(d("90")))
}

func TestReconcile_NegativeStockAlert(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot := seedHarvestedLot(t, e, farm, product, "100", t0)

	stored, err := e.store.GetLot(lot.LotID)
	require.NoError(t, err)
	stored.Available = d("-5")
	require.NoError(t, e.store.UpdateLot(stored))

	report, err := e.Reconcile(lot.LotID)
	require.NoError(t, err)
	assert.False(t, report.Clean)

	found := false
	for _, alert := range report.Alerts {
		if strings.Contains(alert, "negative available stock") {
			found = true
		}
	}
	assert.True(t, found, "expected a negative stock alert, got %v", report.Alerts)
}
