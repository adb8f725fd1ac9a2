// Lot commands manage traceability lots and their lifecycle.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/types"
)

var (
	flagLotProduct  string
	flagLotFacility string
	flagLotUnit     string
	flagLotCode     string
	flagLotStatus   string
	flagExpireAsOf  string
)

var lotCmd = &cobra.Command{
	Use:   "lot",
	Short: "Manage traceability lots",
}

var lotCreateCmd = &cobra.Command{
	Use:   "create <quantity>",
	Short: "Create a lot",
	Long: `Create mints a new traceability lot of the given quantity. The
quantity is normalized to the base unit of its dimension. Without --code
a traceability lot code is generated from the product code.

Example:
  tracelot lot create 2.5 --product ROMA --facility "Sunrise Farms" --unit t`,
	Args: cobra.ExactArgs(1),
	RunE: runLotCreate,
}

var lotGetCmd = &cobra.Command{
	Use:   "get <code-or-id>",
	Short: "Show one lot",
	Args:  cobra.ExactArgs(1),
	RunE:  runLotGet,
}

var lotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lots",
	Args:  cobra.NoArgs,
	RunE:  runLotList,
}

var lotReserveCmd = &cobra.Command{
	Use:   "reserve <code-or-id> <quantity>",
	Short: "Reserve stock on a lot",
	Args:  cobra.ExactArgs(2),
	RunE:  runLotReserve,
}

var lotReleaseCmd = &cobra.Command{
	Use:   "release <code-or-id> <quantity>",
	Short: "Release reserved stock back to available",
	Args:  cobra.ExactArgs(2),
	RunE:  runLotRelease,
}

var lotStatusCmd = &cobra.Command{
	Use:   "status <code-or-id> <target>",
	Short: "Transition a lot's status",
	Long: `Status moves a lot along its lifecycle. Active lots may move to
shipped, consumed or expired; recalled is reachable from any status.`,
	Args: cobra.ExactArgs(2),
	RunE: runLotStatus,
}

var lotRecallCmd = &cobra.Command{
	Use:   "recall <code-or-id>",
	Short: "Recall a lot",
	Long: `Recall flips a lot to recalled from any status, including already
terminal ones. Recalling a recalled lot is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runLotRecall,
}

var lotExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire lots past their shelf life",
	Args:  cobra.NoArgs,
	RunE:  runLotExpire,
}

func init() {
	lotCreateCmd.Flags().StringVar(&flagLotProduct, "product", "", "product code or ID (required)")
	lotCreateCmd.Flags().StringVar(&flagLotFacility, "facility", "", "facility name or ID (required)")
	lotCreateCmd.Flags().StringVar(&flagLotUnit, "unit", "kg", "quantity unit")
	lotCreateCmd.Flags().StringVar(&flagLotCode, "code", "", "explicit traceability lot code")
	_ = lotCreateCmd.MarkFlagRequired("product")
	_ = lotCreateCmd.MarkFlagRequired("facility")

	lotListCmd.Flags().StringVar(&flagLotStatus, "status", "", "filter by status")
	lotExpireCmd.Flags().StringVar(&flagExpireAsOf, "as-of", "", "expire relative to this time instead of now")

	lotCmd.AddCommand(lotCreateCmd)
	lotCmd.AddCommand(lotGetCmd)
	lotCmd.AddCommand(lotListCmd)
	lotCmd.AddCommand(lotReserveCmd)
	lotCmd.AddCommand(lotReleaseCmd)
	lotCmd.AddCommand(lotStatusCmd)
	lotCmd.AddCommand(lotRecallCmd)
	lotCmd.AddCommand(lotExpireCmd)
}

func runLotCreate(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	qty, err := parseQuantity(args[0])
	if err != nil {
		return err
	}
	product, err := productByCodeOrID(engine, flagLotProduct)
	if err != nil {
		return err
	}
	facility, err := facilityByNameOrID(engine, flagLotFacility)
	if err != nil {
		return err
	}

	lot, err := engine.CreateLot(product.ProductID, facility.FacilityID, qty, flagLotUnit, flagLotCode)
	if err != nil {
		return fmt.Errorf("create lot: %w", err)
	}

	if flagJSON {
		return printJSON(lot)
	}
	fmt.Printf("created lot %s: %s %s available (%s)\n", lot.Code, lot.Available, lot.Unit, lot.LotID)
	return nil
}

func runLotGet(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	lot, err := lotByCodeOrID(engine, args[0])
	if err != nil {
		return fmt.Errorf("get lot: %w", err)
	}

	if flagJSON {
		return printJSON(lot)
	}
	printLot(lot)
	return nil
}

func runLotList(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	lots, err := engine.Lots(types.LotStatus(flagLotStatus))
	if err != nil {
		return fmt.Errorf("list lots: %w", err)
	}

	if flagJSON {
		return printJSON(lots)
	}
	for _, lot := range lots {
		fmt.Printf("%-24s %-10s avail=%-10s reserved=%-10s shipped=%-10s %s\n",
			lot.Code, lot.Status, lot.Available, lot.Reserved, lot.Shipped, lot.Unit)
	}
	return nil
}

func runLotReserve(cmd *cobra.Command, args []string) error {
	return runReserveOp(args, true)
}

func runLotRelease(cmd *cobra.Command, args []string) error {
	return runReserveOp(args, false)
}

func runReserveOp(args []string, reserve bool) error {
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

	if reserve {
		lot, err = engine.Reserve(lot.LotID, qty)
		if err != nil {
			return fmt.Errorf("reserve: %w", err)
		}
	} else {
		lot, err = engine.ReleaseReservation(lot.LotID, qty)
		if err != nil {
			return fmt.Errorf("release: %w", err)
		}
	}

	if flagJSON {
		return printJSON(lot)
	}
	printLot(lot)
	return nil
}

func runLotStatus(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	lot, err := lotByCodeOrID(engine, args[0])
	if err != nil {
		return fmt.Errorf("get lot: %w", err)
	}
	lot, err = engine.TransitionStatus(lot.LotID, types.LotStatus(args[1]))
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}

	if flagJSON {
		return printJSON(lot)
	}
	fmt.Printf("lot %s is now %s\n", lot.Code, lot.Status)
	return nil
}

func runLotRecall(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	lot, err := lotByCodeOrID(engine, args[0])
	if err != nil {
		return fmt.Errorf("get lot: %w", err)
	}
	lot, err = engine.RecallLot(lot.LotID)
	if err != nil {
		return fmt.Errorf("recall: %w", err)
	}

	if flagJSON {
		return printJSON(lot)
	}
	fmt.Printf("lot %s is now %s\n", lot.Code, lot.Status)
	return nil
}

func runLotExpire(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	asOf := time.Now().UTC()
	if flagExpireAsOf != "" {
		asOf, err = parseTimestamp(flagExpireAsOf)
		if err != nil {
			return err
		}
	}

	expired, err := engine.ExpireLots(asOf)
	if err != nil {
		return fmt.Errorf("expire lots: %w", err)
	}

	if flagJSON {
		return printJSON(expired)
	}
	if len(expired) == 0 {
		fmt.Println("no lots past shelf life")
		return nil
	}
	for _, lot := range expired {
		fmt.Printf("expired %s\n", lot.Code)
	}
	return nil
}

func printLot(lot *types.Lot) {
	fmt.Printf("lot %s (%s)\n", lot.Code, lot.LotID)
	fmt.Printf("  status    %s\n", lot.Status)
	fmt.Printf("  available %s %s\n", lot.Available, lot.Unit)
	fmt.Printf("  reserved  %s %s\n", lot.Reserved, lot.Unit)
	fmt.Printf("  shipped   %s %s\n", lot.Shipped, lot.Unit)
	fmt.Printf("  initial   %s %s\n", lot.InitialQty, lot.Unit)
	fmt.Printf("  version   %d\n", lot.Version)
}
