// Package integration provides shared test helpers for integration tests.
package integration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/internal/sqlite"
	"github.com/provenanceworks/tracelot/pkg/ledger"
	"github.com/provenanceworks/tracelot/pkg/types"
)

// setupEngine creates a ledger engine over a SQLite backend attached to
// an isolated temp directory. Each test case gets its own store.
func setupEngine(t *testing.T, cfg types.Config) (*ledger.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	cfg.Backend = types.BackendSQLite
	cfg.DataDir = dir
	store := sqlite.NewBackend()
	if err := store.Open(cfg); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return ledger.New(store, cfg), dir
}

// qty parses a decimal literal or fails the test at init time.
func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// mustRegisterProduct registers a product and returns it.
func mustRegisterProduct(t *testing.T, e *ledger.Engine, code, name string, shelfLifeDays int) *types.Product {
	t.Helper()
	p := &types.Product{Code: code, Name: name, ShelfLifeDays: shelfLifeDays}
	if err := e.RegisterProduct(p); err != nil {
		t.Fatalf("RegisterProduct(%q): %v", code, err)
	}
	return p
}

// mustRegisterFacility registers a facility and returns it.
func mustRegisterFacility(t *testing.T, e *ledger.Engine, name string, ft types.FacilityType) *types.Facility {
	t.Helper()
	f := &types.Facility{Name: name, Type: ft, LocationCode: "US-CA-TEST"}
	if err := e.RegisterFacility(f); err != nil {
		t.Fatalf("RegisterFacility(%q): %v", name, err)
	}
	return f
}

// mustCreateLot creates a lot or fails the test.
func mustCreateLot(t *testing.T, e *ledger.Engine, productID, facilityID string, quantity decimal.Decimal, code string) *types.Lot {
	t.Helper()
	lot, err := e.CreateLot(productID, facilityID, quantity, "kg", code)
	if err != nil {
		t.Fatalf("CreateLot(%q): %v", code, err)
	}
	return lot
}

// mustRecordEvent appends an event or fails the test.
func mustRecordEvent(t *testing.T, e *ledger.Engine, lotID string, et types.EventType, ts time.Time, facilityID string, kde map[string]any) *types.Event {
	t.Helper()
	ev, err := e.RecordEvent(lotID, et, ts, facilityID, kde)
	if err != nil {
		t.Fatalf("RecordEvent(%s): %v", et, err)
	}
	return ev
}

// harvestKDE returns a complete harvest key data element map.
func harvestKDE(date string) map[string]any {
	return map[string]any{
		"harvest_date":        date,
		"harvest_location":    "US-CA-TEST",
		"farm_identification": "test-farm",
		"commodity":           "tomatoes",
	}
}

// coolingKDE returns a complete cooling key data element map.
func coolingKDE(date, lotCode string) map[string]any {
	return map[string]any{
		"cooling_date":     date,
		"cooling_location": "US-CA-TEST",
		"temperature":      4.0,
		"lot_code":         lotCode,
	}
}

// packingKDE returns a complete packing key data element map.
func packingKDE(date, lotCode string) map[string]any {
	return map[string]any{
		"packing_date":     date,
		"packing_location": "US-CA-TEST",
		"lot_code":         lotCode,
		"quantity":         "1000",
	}
}
