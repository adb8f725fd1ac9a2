// Version command for the tracelot CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/pkg/ledger"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tracelot version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tracelot", ledger.Version)
	},
}
