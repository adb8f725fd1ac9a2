// Root command for the tracelot CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/provenanceworks/tracelot/internal/paths"
	"github.com/provenanceworks/tracelot/pkg/ledger"
)

// Exit codes: 0 success, 1 user error, 2 system error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// configDataDir holds the data_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDataDir string

var rootCmd = &cobra.Command{
	Use:           "tracelot",
	Short:         "Tracelot is a supply-chain traceability ledger",
	Version:       ledger.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.tracelot)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.tracelot-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(facilityCmd)
	rootCmd.AddCommand(lotCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(shipCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(wasteCmd)
	rootCmd.AddCommand(traceCmd)
}

// resolveDataDir returns the data directory following the precedence:
// --data-dir flag > config.yaml data_dir > TRACELOT_DATA_DIR env >
// default $(CWD)/.tracelot-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > TRACELOT_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
