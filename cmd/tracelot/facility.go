// Facility commands manage supply-chain facilities.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/types"
)

var (
	flagFacilityCompany  string
	flagFacilityLocation string
)

var facilityCmd = &cobra.Command{
	Use:   "facility",
	Short: "Manage supply-chain facilities",
}

var facilityAddCmd = &cobra.Command{
	Use:   "add <name> <type>",
	Short: "Register a facility",
	Long: `Add registers a facility. The type decides which event types the
facility may originate: farm, packing_house, processor, distributor,
retailer, importer or port.

Example:
  tracelot facility add "Sunrise Farms" farm --location US-CA-FRESNO`,
	Args: cobra.ExactArgs(2),
	RunE: runFacilityAdd,
}

var facilityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered facilities",
	Args:  cobra.NoArgs,
	RunE:  runFacilityList,
}

func init() {
	facilityAddCmd.Flags().StringVar(&flagFacilityCompany, "company", "", "owning company ID")
	facilityAddCmd.Flags().StringVar(&flagFacilityLocation, "location", "", "FDA location code")

	facilityCmd.AddCommand(facilityAddCmd)
	facilityCmd.AddCommand(facilityListCmd)
}

func runFacilityAdd(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	f := &types.Facility{
		CompanyID:    flagFacilityCompany,
		Name:         args[0],
		Type:         types.FacilityType(args[1]),
		LocationCode: flagFacilityLocation,
	}
	if err := engine.RegisterFacility(f); err != nil {
		return fmt.Errorf("register facility: %w", err)
	}

	if flagJSON {
		return printJSON(f)
	}
	fmt.Printf("registered %s facility %q (%s)\n", f.Type, f.Name, f.FacilityID)
	return nil
}

func runFacilityList(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	facilities, err := engine.Facilities()
	if err != nil {
		return fmt.Errorf("list facilities: %w", err)
	}

	if flagJSON {
		return printJSON(facilities)
	}
	for _, f := range facilities {
		fmt.Printf("%-30s %-14s loc=%-16s %s\n", f.Name, f.Type, f.LocationCode, f.FacilityID)
	}
	return nil
}
