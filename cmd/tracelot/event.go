// Event commands append and inspect critical tracking events.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/types"
)

var (
	flagEventFacility string
	flagEventAt       string
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Append and inspect tracking events",
}

var eventRecordCmd = &cobra.Command{
	Use:   "record <lot> <type> [key=value ...]",
	Short: "Record a tracking event on a lot",
	Long: `Record appends a critical tracking event to a lot's history. Key
data elements are given as key=value pairs; values that parse as JSON
keep their structure. Transformations cannot be recorded here, use
"tracelot transform".

Example:
  tracelot event record TLC-ROMA-X harvest \
    harvest_date=2026-03-10 harvest_location=US-CA-FRESNO \
    farm_identification=sunrise-farms commodity=tomatoes \
    --facility "Sunrise Farms"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEventRecord,
}

var eventListCmd = &cobra.Command{
	Use:   "list <lot>",
	Short: "List a lot's events in chronological order",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventList,
}

func init() {
	eventRecordCmd.Flags().StringVar(&flagEventFacility, "facility", "", "facility name or ID (required)")
	eventRecordCmd.Flags().StringVar(&flagEventAt, "at", "", "event timestamp (RFC 3339 or YYYY-MM-DD, default now)")
	_ = eventRecordCmd.MarkFlagRequired("facility")

	eventCmd.AddCommand(eventRecordCmd)
	eventCmd.AddCommand(eventListCmd)
}

func runEventRecord(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	lot, err := lotByCodeOrID(engine, args[0])
	if err != nil {
		return fmt.Errorf("get lot: %w", err)
	}
	facility, err := facilityByNameOrID(engine, flagEventFacility)
	if err != nil {
		return err
	}
	ts, err := parseTimestamp(flagEventAt)
	if err != nil {
		return err
	}
	kde, err := parseKDEArgs(args[2:])
	if err != nil {
		return err
	}

	event, err := engine.RecordEvent(lot.LotID, types.EventType(args[1]), ts, facility.FacilityID, kde)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	if flagJSON {
		return printJSON(event)
	}
	fmt.Printf("recorded %s event %s on lot %s\n", event.Type, event.EventID, lot.Code)
	return nil
}

func runEventList(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	lot, err := lotByCodeOrID(engine, args[0])
	if err != nil {
		return fmt.Errorf("get lot: %w", err)
	}
	events, err := engine.Events(lot.LotID)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	if flagJSON {
		return printJSON(events)
	}
	for _, ev := range events {
		fmt.Printf("%s  %-16s facility=%s  %s\n",
			ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Type, ev.FacilityID, ev.EventID)
	}
	return nil
}
