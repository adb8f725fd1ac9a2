package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenanceworks/tracelot/pkg/types"
)

var t0 = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func TestCreateLot(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)

	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("2.5"), "t", "")
	require.NoError(t, err)

	assert.Equal(t, types.LotActive, lot.Status)
	assert.Equal(t, "kg", lot.Unit)
	assert.True(t, lot.InitialQty.Equal(d("2500")), "tonnes normalize to kg, got %s", lot.InitialQty)
	assert.True(t, lot.Available.Equal(d("2500")))
	assert.Contains(t, lot.Code, "TLC-ROMA-")
}

func TestCreateLot_ExplicitCode(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)

	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "TLC-CUSTOM-01")
	require.NoError(t, err)
	assert.Equal(t, "TLC-CUSTOM-01", lot.Code)

	_, err = e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "TLC-CUSTOM-01")
	assert.ErrorIs(t, err, types.ErrDuplicateLotCode)
}

func TestCreateLot_BadInputs(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)

	_, err := e.CreateLot("missing", farm.FacilityID, d("100"), "kg", "")
	assert.ErrorIs(t, err, types.ErrProductNotFound)

	_, err = e.CreateLot(product.ProductID, "missing", d("100"), "kg", "")
	assert.ErrorIs(t, err, types.ErrFacilityNotFound)

	_, err = e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "bushels", "")
	assert.ErrorIs(t, err, types.ErrUnsupportedUnit)

	_, err = e.CreateLot(product.ProductID, farm.FacilityID, d("-5"), "kg", "")
	assert.ErrorIs(t, err, types.ErrInvalidQuantity)
}

func TestRecordEvent(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)

	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	event, err := e.RecordEvent(lot.LotID, types.EventHarvest, t0, farm.FacilityID, harvestKDE())
	require.NoError(t, err)
	assert.NotEmpty(t, event.EventID)

	events, err := e.Events(lot.LotID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventHarvest, events[0].Type)

	kde, ok := events[0].KDE.(*types.HarvestKDE)
	require.True(t, ok, "expected *HarvestKDE, got %T", events[0].KDE)
	assert.Equal(t, "FARM-7", kde.FarmIdentification)
}

func TestRecordEvent_MissingKDEFields(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	_, err = e.RecordEvent(lot.LotID, types.EventHarvest, t0, farm.FacilityID, map[string]any{
		"harvest_date": "2026-03-10",
	})
	require.Error(t, err)

	var kdeErr *types.KDEError
	require.ErrorAs(t, err, &kdeErr)
	assert.ErrorIs(t, err, types.ErrMissingRequiredKDE)
	assert.Equal(t, []string{"harvest_location", "farm_identification", "commodity"}, kdeErr.Missing)

	// Nothing appended on rejection
	events, err := e.Events(lot.LotID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecordEvent_FacilityCapability(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	retailer := seedFacility(t, e, "corner-store", types.FacilityRetailer)
	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	_, err = e.RecordEvent(lot.LotID, types.EventHarvest, t0, retailer.FacilityID, harvestKDE())
	require.Error(t, err)

	var capErr *types.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.ErrorIs(t, err, types.ErrEventNotPermitted)
	assert.Equal(t, types.FacilityRetailer, capErr.FacilityType)
	assert.Equal(t, types.EventHarvest, capErr.EventType)
}

func TestRecordEvent_RejectsTransformation(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	_, err := e.RecordEvent("any", types.EventTransformation, t0, "any", nil)
	assert.ErrorIs(t, err, types.ErrTransformationViaRecordEvent)
}

func TestRecordEvent_Chronology(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot := seedHarvestedLot(t, e, farm, product, "100", t0)

	coolingKDE := map[string]any{
		"cooling_date":     "2026-03-10",
		"cooling_location": "Cooler A",
		"temperature":      "4C",
		"lot_code":         lot.Code,
	}

	// Earlier than the harvest: rejected with full context
	_, err := e.RecordEvent(lot.LotID, types.EventCooling, t0.Add(-time.Hour), farm.FacilityID, coolingKDE)
	require.Error(t, err)

	var chronoErr *types.ChronologyError
	require.ErrorAs(t, err, &chronoErr)
	assert.ErrorIs(t, err, types.ErrChronologyViolation)
	assert.Equal(t, types.EventHarvest, chronoErr.PriorType)
	assert.Equal(t, types.EventCooling, chronoErr.ProposedType)
	assert.Equal(t, -time.Hour, chronoErr.Delta)
	assert.NotEmpty(t, chronoErr.Remediation())

	// Later is fine
	_, err = e.RecordEvent(lot.LotID, types.EventCooling, t0.Add(time.Hour), farm.FacilityID, coolingKDE)
	assert.NoError(t, err)
}

func TestRecordEvent_EqualTimestamps(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot := seedHarvestedLot(t, e, farm, product, "100", t0)

	// Different type at the same instant is permitted by default
	_, err := e.RecordEvent(lot.LotID, types.EventCooling, t0, farm.FacilityID, map[string]any{
		"cooling_date":     "2026-03-10",
		"cooling_location": "Cooler A",
		"temperature":      "4C",
		"lot_code":         lot.Code,
	})
	assert.NoError(t, err)
}

func TestRecordEvent_StrictSameType(t *testing.T) {
	e := newTestEngine(t, types.Config{StrictSameType: true})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot := seedHarvestedLot(t, e, farm, product, "100", t0)

	_, err := e.RecordEvent(lot.LotID, types.EventHarvest, t0, farm.FacilityID, harvestKDE())
	require.Error(t, err)

	var chronoErr *types.ChronologyError
	require.ErrorAs(t, err, &chronoErr)
	assert.True(t, chronoErr.SameTypeClash)
}

func TestRecordEvent_ReceivingQuantity(t *testing.T) {
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

	balance, err := e.GetBalance(lot.LotID)
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(d("75")), "received quantity feeds available, got %s", balance.Available)
}

func TestTransitionStatus(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	flipped, err := e.TransitionStatus(lot.LotID, types.LotConsumed)
	require.NoError(t, err)
	assert.Equal(t, types.LotConsumed, flipped.Status)

	// Terminal statuses admit only recall
	_, err = e.TransitionStatus(lot.LotID, types.LotShipped)
	var statusErr *types.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.ErrorIs(t, err, types.ErrIllegalStatusTransition)

	recalled, err := e.TransitionStatus(lot.LotID, types.LotRecalled)
	require.NoError(t, err)
	assert.Equal(t, types.LotRecalled, recalled.Status)
}

func TestRecallLot(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	// Recall reaches past terminal statuses.
	_, err = e.TransitionStatus(lot.LotID, types.LotConsumed)
	require.NoError(t, err)

	recalled, err := e.RecallLot(lot.LotID)
	require.NoError(t, err)
	assert.Equal(t, types.LotRecalled, recalled.Status)

	// Idempotent: a second recall succeeds without bumping the version.
	again, err := e.RecallLot(lot.LotID)
	require.NoError(t, err)
	assert.Equal(t, types.LotRecalled, again.Status)
	assert.Equal(t, recalled.Version, again.Version)

	_, err = e.RecallLot("missing")
	assert.ErrorIs(t, err, types.ErrLotNotFound)
}

func TestReserveAndRelease(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	product := seedProduct(t, e, "ROMA", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)
	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	reserved, err := e.Reserve(lot.LotID, d("30"))
	require.NoError(t, err)
	assert.True(t, reserved.Available.Equal(d("70")))
	assert.True(t, reserved.Reserved.Equal(d("30")))

	// Over-reserving fails with the deficit
	_, err = e.Reserve(lot.LotID, d("80"))
	var invErr *types.InventoryError
	require.ErrorAs(t, err, &invErr)
	assert.ErrorIs(t, err, types.ErrInsufficientInventory)
	assert.True(t, invErr.Deficit().Equal(d("10")))

	released, err := e.ReleaseReservation(lot.LotID, d("30"))
	require.NoError(t, err)
	assert.True(t, released.Available.Equal(d("100")))
	assert.True(t, released.Reserved.IsZero())

	_, err = e.ReleaseReservation(lot.LotID, d("1"))
	assert.ErrorIs(t, err, types.ErrInvalidQuantity)

	_, err = e.Reserve(lot.LotID, d("0"))
	assert.ErrorIs(t, err, types.ErrInvalidQuantity)
}

func TestExpireLots(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	perishable := seedProduct(t, e, "ROMA", 5)
	durable := seedProduct(t, e, "CANNED", 0)
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)

	spoiling := seedHarvestedLot(t, e, farm, perishable, "100", t0)
	fresh := seedHarvestedLot(t, e, farm, perishable, "100", t0.AddDate(0, 0, 4))
	keeps, err := e.CreateLot(durable.ProductID, farm.FacilityID, d("100"), "kg", "")
	require.NoError(t, err)

	expired, err := e.ExpireLots(t0.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, spoiling.LotID, expired[0].LotID)

	still, err := e.Lot(fresh.LotID)
	require.NoError(t, err)
	assert.Equal(t, types.LotActive, still.Status)

	forever, err := e.Lot(keeps.LotID)
	require.NoError(t, err)
	assert.Equal(t, types.LotActive, forever.Status)
}

func TestRecordEvent_UnknownLot(t *testing.T) {
	e := newTestEngine(t, types.Config{})
	farm := seedFacility(t, e, "north-farm", types.FacilityFarm)

	_, err := e.RecordEvent("missing", types.EventHarvest, t0, farm.FacilityID, harvestKDE())
	assert.True(t, errors.Is(err, types.ErrLotNotFound))
}
