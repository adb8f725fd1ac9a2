// Ship command records outbound shipments.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/ledger"
)

var (
	flagShipFacility    string
	flagShipDestination string
	flagShipTransport   string
	flagShipUnit        string
	flagShipAt          string
	flagShipRefDocs     []string
)

var shipCmd = &cobra.Command{
	Use:   "ship <lot> <quantity>",
	Short: "Record an outbound shipment",
	Long: `Ship appends a shipping event to a lot and records the linked
shipment. Reserved stock is consumed first, the remainder comes from
available. When the lot's balance reaches zero its status flips to
shipped.

Example:
  tracelot ship TLC-SALSA-BATCH7 60 --facility "Central Processing" \
    --destination "Metro Grocers DC" --ref-doc PO-4471`,
	Args: cobra.ExactArgs(2),
	RunE: runShip,
}

func init() {
	shipCmd.Flags().StringVar(&flagShipFacility, "facility", "", "shipping facility name or ID (required)")
	shipCmd.Flags().StringVar(&flagShipDestination, "destination", "", "destination (required)")
	shipCmd.Flags().StringVar(&flagShipTransport, "transport", "", "carrier and transport detail")
	shipCmd.Flags().StringVar(&flagShipUnit, "unit", "kg", "quantity unit")
	shipCmd.Flags().StringVar(&flagShipAt, "at", "", "event timestamp (default now)")
	shipCmd.Flags().StringArrayVar(&flagShipRefDocs, "ref-doc", nil, "reference document, repeatable")
	_ = shipCmd.MarkFlagRequired("facility")
	_ = shipCmd.MarkFlagRequired("destination")
}

func runShip(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	lot, err := lotByCodeOrID(engine, args[0])
	if err != nil {
		return fmt.Errorf("get lot: %w", err)
	}
	qty, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	facility, err := facilityByNameOrID(engine, flagShipFacility)
	if err != nil {
		return err
	}
	ts, err := parseTimestamp(flagShipAt)
	if err != nil {
		return err
	}

	shipment, err := engine.RecordShipment(ledger.ShipmentSpec{
		LotID:         lot.LotID,
		FacilityID:    facility.FacilityID,
		Timestamp:     ts,
		Quantity:      qty,
		Unit:          flagShipUnit,
		Destination:   flagShipDestination,
		TransportInfo: flagShipTransport,
		ReferenceDocs: flagShipRefDocs,
	})
	if err != nil {
		return fmt.Errorf("record shipment: %w", err)
	}

	if flagJSON {
		return printJSON(shipment)
	}
	fmt.Printf("shipped %s %s of lot %s to %s (%s)\n",
		shipment.Quantity, shipment.Unit, lot.Code, shipment.Destination, shipment.ShipmentID)
	return nil
}
