// Package units converts heterogeneous quantity units to the canonical
// base unit (kilograms) so all ledger arithmetic is unit-agnostic. Every
// other component normalizes at its boundary; nothing downstream of this
// package sees a raw unit symbol.
package units

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// Base is the canonical unit symbol all quantities normalize to.
const Base = "kg"

// factors maps a unit symbol to its multiplicative factor to kilograms.
// Symbols are matched case-insensitively.
var factors = map[string]decimal.Decimal{
	"kg":    decimal.NewFromInt(1),
	"g":     decimal.RequireFromString("0.001"),
	"mg":    decimal.RequireFromString("0.000001"),
	"t":     decimal.NewFromInt(1000),
	"tonne": decimal.NewFromInt(1000),
	"lb":    decimal.RequireFromString("0.45359237"),
	"oz":    decimal.RequireFromString("0.028349523125"),
}

// Normalize converts quantity from the given unit to the base unit.
// Returns ErrUnsupportedUnit for an unrecognized symbol and
// ErrInvalidQuantity for a negative quantity.
func Normalize(quantity decimal.Decimal, unit string) (decimal.Decimal, error) {
	factor, ok := factors[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", types.ErrUnsupportedUnit, unit)
	}
	if quantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", types.ErrInvalidQuantity, quantity)
	}
	return quantity.Mul(factor), nil
}

// Parse converts a textual quantity in the given unit to the base unit.
// Returns ErrInvalidQuantity when the text is not a finite decimal
// number, and the same errors as Normalize otherwise.
func Parse(quantity, unit string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(quantity))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", types.ErrInvalidQuantity, quantity)
	}
	return Normalize(d, unit)
}

// Supported reports whether the unit symbol is recognized.
func Supported(unit string) bool {
	_, ok := factors[strings.ToLower(strings.TrimSpace(unit))]
	return ok
}

// Symbols returns the recognized unit symbols in no particular order.
func Symbols() []string {
	out := make([]string, 0, len(factors))
	for s := range factors {
		out = append(out, s)
	}
	return out
}
