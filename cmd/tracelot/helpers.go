// Shared helpers for tracelot CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/internal/sqlite"
	"github.com/provenanceworks/tracelot/pkg/ledger"
	"github.com/provenanceworks/tracelot/pkg/types"
)

// openEngine resolves the data directory, opens the SQLite backend, and
// wires the ledger engine on top. The caller must defer close().
func openEngine() (*ledger.Engine, func() error, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg, err := ledgerConfig(dataDir)
	if err != nil {
		return nil, nil, err
	}

	store := sqlite.NewBackend()
	if err := store.Open(cfg); err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}

	return ledger.New(store, cfg), store.Close, nil
}

// printJSON renders v as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// parseQuantity parses a decimal quantity argument.
func parseQuantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return q, nil
}

// parseTimestamp parses an event timestamp argument. Empty means now.
// Accepts RFC 3339 or a plain date.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (expected RFC 3339 or YYYY-MM-DD)", s)
	}
	return ts, nil
}

// parseKDEArgs converts key=value pairs into a KDE map. Values that parse
// as JSON keep their structure; everything else stays a string.
func parseKDEArgs(args []string) (map[string]any, error) {
	kde := make(map[string]any, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid KDE pair %q (expected key=value)", arg)
		}
		var parsed any
		if err := json.Unmarshal([]byte(parts[1]), &parsed); err != nil {
			parsed = parts[1]
		}
		kde[parts[0]] = parsed
	}
	return kde, nil
}

// productByCodeOrID resolves a product reference, trying the catalog
// code first and falling back to the product ID.
func productByCodeOrID(e *ledger.Engine, ref string) (*types.Product, error) {
	products, err := e.Products()
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.Code == ref || p.ProductID == ref {
			return p, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", ref, types.ErrProductNotFound)
}

// facilityByNameOrID resolves a facility reference, trying the name
// first and falling back to the facility ID.
func facilityByNameOrID(e *ledger.Engine, ref string) (*types.Facility, error) {
	facilities, err := e.Facilities()
	if err != nil {
		return nil, err
	}
	for _, f := range facilities {
		if f.Name == ref || f.FacilityID == ref {
			return f, nil
		}
	}
	return nil, fmt.Errorf("facility %q: %w", ref, types.ErrFacilityNotFound)
}

// lotByCodeOrID resolves a lot reference, trying the traceability lot
// code first and falling back to the lot ID.
func lotByCodeOrID(e *ledger.Engine, ref string) (*types.Lot, error) {
	lot, err := e.LotByCode(ref)
	if err == nil {
		return lot, nil
	}
	return e.Lot(ref)
}
