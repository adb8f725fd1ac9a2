// Transform command records transformation events.
package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/ledger"
)

var (
	flagTransformProduct     string
	flagTransformFacility    string
	flagTransformCode        string
	flagTransformUnit        string
	flagTransformAt          string
	flagTransformSources     []string
	flagTransformWasteReason string
)

var transformCmd = &cobra.Command{
	Use:   "transform <output-quantity>",
	Short: "Transform source lots into an output lot",
	Long: `Transform consumes one or more source lots into an output lot,
recording a transformation event and one graph edge per source. Each
--source is SOURCE:QUANTITY[:WASTE_PCT], where the waste percentage is
the expected processing loss on that source.

When --code names an existing active lot the output quantity is
received into it; otherwise a new lot is created.

Example:
  tracelot transform 120 --product SALSA --facility "Central Processing" \
    --source TLC-ROMA-X:100:10 --source TLC-ONION-Y:50:5`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVar(&flagTransformProduct, "product", "", "output product code or ID (required)")
	transformCmd.Flags().StringVar(&flagTransformFacility, "facility", "", "facility name or ID (required)")
	transformCmd.Flags().StringVar(&flagTransformCode, "code", "", "output traceability lot code")
	transformCmd.Flags().StringVar(&flagTransformUnit, "unit", "kg", "output quantity unit")
	transformCmd.Flags().StringVar(&flagTransformAt, "at", "", "event timestamp (default now)")
	transformCmd.Flags().StringArrayVar(&flagTransformSources, "source", nil, "source spec SOURCE:QUANTITY[:WASTE_PCT], repeatable (required)")
	transformCmd.Flags().StringVar(&flagTransformWasteReason, "waste-reason", "", "justification for out-of-tolerance declared waste")
	_ = transformCmd.MarkFlagRequired("product")
	_ = transformCmd.MarkFlagRequired("facility")
	_ = transformCmd.MarkFlagRequired("source")
}

// parseSourceSpec parses SOURCE:QUANTITY[:WASTE_PCT].
func parseSourceSpec(engine *ledger.Engine, arg, unit string) (ledger.SourceSpec, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return ledger.SourceSpec{}, fmt.Errorf("invalid source %q (expected SOURCE:QUANTITY[:WASTE_PCT])", arg)
	}

	lot, err := lotByCodeOrID(engine, parts[0])
	if err != nil {
		return ledger.SourceSpec{}, fmt.Errorf("source %q: %w", parts[0], err)
	}
	qty, err := parseQuantity(parts[1])
	if err != nil {
		return ledger.SourceSpec{}, err
	}
	wastePct := decimal.Zero
	if len(parts) == 3 {
		wastePct, err = decimal.NewFromString(parts[2])
		if err != nil {
			return ledger.SourceSpec{}, fmt.Errorf("invalid waste pct %q: %w", parts[2], err)
		}
	}

	return ledger.SourceSpec{
		LotCode:      lot.Code,
		QuantityUsed: qty,
		Unit:         unit,
		WastePct:     wastePct,
	}, nil
}

func runTransform(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	qty, err := parseQuantity(args[0])
	if err != nil {
		return err
	}
	product, err := productByCodeOrID(engine, flagTransformProduct)
	if err != nil {
		return err
	}
	facility, err := facilityByNameOrID(engine, flagTransformFacility)
	if err != nil {
		return err
	}
	ts, err := parseTimestamp(flagTransformAt)
	if err != nil {
		return err
	}

	sources := make([]ledger.SourceSpec, 0, len(flagTransformSources))
	for _, arg := range flagTransformSources {
		spec, err := parseSourceSpec(engine, arg, flagTransformUnit)
		if err != nil {
			return err
		}
		sources = append(sources, spec)
	}

	output := ledger.OutputSpec{
		ProductID:   product.ProductID,
		FacilityID:  facility.FacilityID,
		Code:        flagTransformCode,
		Quantity:    qty,
		Unit:        flagTransformUnit,
		Timestamp:   ts,
		WasteReason: flagTransformWasteReason,
	}

	lot, err := engine.RecordTransformation(output, sources)
	if err != nil {
		return fmt.Errorf("record transformation: %w", err)
	}

	if flagJSON {
		return printJSON(lot)
	}
	fmt.Printf("transformed %d source(s) into lot %s: %s %s available\n",
		len(sources), lot.Code, lot.Available, lot.Unit)
	return nil
}
