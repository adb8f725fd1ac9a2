package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/provenanceworks/tracelot/internal/sqlite"
	"github.com/provenanceworks/tracelot/pkg/types"
)

// newTestEngine spins up an engine on a throwaway SQLite backend.
func newTestEngine(t *testing.T, cfg types.Config) *Engine {
	t.Helper()
	cfg.Backend = types.BackendSQLite
	cfg.DataDir = t.TempDir()
	store := sqlite.NewBackend()
	require.NoError(t, store.Open(cfg))
	t.Cleanup(func() { store.Close() })
	return New(store, cfg)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, e *Engine, code string, shelfLifeDays int) *types.Product {
	t.Helper()
	p := &types.Product{
		CompanyID:     "co-test",
		Code:          code,
		Name:          code + " product",
		Category:      "produce",
		CanonicalUnit: "kg",
		ShelfLifeDays: shelfLifeDays,
	}
	require.NoError(t, e.RegisterProduct(p))
	return p
}

func seedFacility(t *testing.T, e *Engine, name string, ft types.FacilityType) *types.Facility {
	t.Helper()
	f := &types.Facility{
		CompanyID:    "co-test",
		Name:         name,
		Type:         ft,
		LocationCode: "LOC-" + name,
	}
	require.NoError(t, e.RegisterFacility(f))
	return f
}

func harvestKDE() map[string]any {
	return map[string]any{
		"harvest_date":        "2026-03-10",
		"harvest_location":    "Field 7",
		"farm_identification": "FARM-7",
		"commodity":           "tomatoes",
	}
}

// seedHarvestedLot creates an active lot at a farm and grounds it with a
// harvest event so transformations can verify provenance.
func seedHarvestedLot(t *testing.T, e *Engine, farm *types.Facility, product *types.Product, qty string, at time.Time) *types.Lot {
	t.Helper()
	lot, err := e.CreateLot(product.ProductID, farm.FacilityID, d(qty), "kg", "")
	require.NoError(t, err)
	_, err = e.RecordEvent(lot.LotID, types.EventHarvest, at, farm.FacilityID, harvestKDE())
	require.NoError(t, err)
	return lot
}
