// Trace commands walk the transformation graph.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/ledger"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace lot lineage through the transformation graph",
}

var traceForwardCmd = &cobra.Command{
	Use:   "forward <lot-code>",
	Short: "Trace downstream: where did this lot's material go",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceForward,
}

var traceBackwardCmd = &cobra.Command{
	Use:   "backward <lot-code>",
	Short: "Trace upstream: where did this lot's material come from",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceBackward,
}

func init() {
	traceCmd.AddCommand(traceForwardCmd)
	traceCmd.AddCommand(traceBackwardCmd)
}

func runTraceForward(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	chain, err := engine.TraceForward(args[0])
	if err != nil {
		return fmt.Errorf("trace forward: %w", err)
	}

	if flagJSON {
		return printJSON(chain)
	}
	printForwardChain(chain, 0)
	return nil
}

func runTraceBackward(cmd *cobra.Command, args []string) error {
	engine, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	chain, err := engine.TraceBackward(args[0])
	if err != nil {
		return fmt.Errorf("trace backward: %w", err)
	}

	if flagJSON {
		return printJSON(chain)
	}
	printBackwardChain(chain, 0)
	return nil
}

func printForwardChain(chain *ledger.ForwardChain, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s (%s, %d events)\n", indent, chain.Lot.Code, chain.Lot.Status, len(chain.Events))
	for _, link := range chain.Descendants {
		fmt.Printf("%s  -> consumed %s %s\n", indent, link.Edge.QuantityUsed, link.Edge.Unit)
		printForwardChain(link.Chain, depth+1)
	}
}

func printBackwardChain(chain *ledger.BackwardChain, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s (%s, %d events)\n", indent, chain.Lot.Code, chain.Lot.Status, len(chain.Events))
	if chain.Origin != nil {
		fmt.Printf("%s  origin: %s at %s\n",
			indent, chain.Origin.Event.Type, chain.Origin.Event.Timestamp.Format("2006-01-02"))
	}
	for _, link := range chain.Ancestors {
		fmt.Printf("%s  <- used %s %s from\n", indent, link.Edge.QuantityUsed, link.Edge.Unit)
		printBackwardChain(link.Chain, depth+1)
	}
}
