// Waste commands analyze and confirm transformation waste.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/ledger"
)

var flagWasteReason string

var wasteCmd = &cobra.Command{
	Use:   "waste",
	Short: "Analyze and confirm transformation waste",
}

var wasteAnalyzeCmd = &cobra.Command{
	Use:   "analyze <event-id>",
	Short: "Analyze declared-vs-actual waste on a transformation",
	Long: `Analyze compares the declared (expected) waste against confirmed
actual waste across a transformation's edges. Unconfirmed edges count as
zero actual waste. When no waste was expected the variance percentage is
undefined.`,
	Args: cobra.ExactArgs(1),
	RunE: runWasteAnalyze,
}

var wasteConfirmCmd = &cobra.Command{
	Use:   "confirm <edge-id> <actual-waste>",
	Short: "Confirm the actual waste on a transformation edge",
	Long: `Confirm records the measured waste on one edge and charges the
source lot for the difference against any previous confirmation. A
variance beyond the reason-required threshold needs --reason.`,
	Args: cobra.ExactArgs(2),
	RunE: runWasteConfirm,
}

func init() {
	wasteConfirmCmd.Flags().StringVar(&flagWasteReason, "reason", "", "justification for an out-of-tolerance variance")

	wasteCmd.AddCommand(wasteAnalyzeCmd)
	wasteCmd.AddCommand(wasteConfirmCmd)
}

func runWasteAnalyze(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	analysis, err := engine.AnalyzeWasteForEvent(args[0])
	if err != nil {
		return fmt.Errorf("analyze waste: %w", err)
	}

	if flagJSON {
		return printJSON(analysis)
	}
	printWasteAnalysis(analysis)
	return nil
}

func printWasteAnalysis(a ledger.WasteAnalysis) {
	fmt.Printf("expected=%s actual=%s variance=%s", a.ExpectedWaste, a.ActualWaste, a.Variance)
	if a.VarianceDefined {
		fmt.Printf(" (%s%%)", a.VariancePct.StringFixed(1))
	} else {
		fmt.Printf(" (variance %% undefined)")
	}
	if a.IsSignificantVariance {
		fmt.Printf("  SIGNIFICANT")
	}
	fmt.Println()
	for _, edge := range a.Edges {
		fmt.Printf("  edge %s source=%s expected=%s actual=%s",
			edge.EdgeID, edge.SourceLotID, edge.ExpectedWaste, edge.ActualWaste)
		if edge.RequiresWasteReason {
			fmt.Printf("  reason required")
		}
		fmt.Println()
	}
}

func runWasteConfirm(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	actual, err := parseQuantity(args[1])
	if err != nil {
		return err
	}

	edge, err := engine.ConfirmWaste(args[0], actual, flagWasteReason)
	if err != nil {
		return fmt.Errorf("confirm waste: %w", err)
	}

	if flagJSON {
		return printJSON(edge)
	}
	fmt.Printf("confirmed %s %s waste on edge %s\n", edge.ActualWasteQty, edge.Unit, edge.EdgeID)
	return nil
}
