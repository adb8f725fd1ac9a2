// Config loading for the tracelot CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/provenanceworks/tracelot/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyBackend                = "backend"
	cfgKeyDataDir                = "data_dir"
	cfgKeyStrictSameType         = "strict_same_type"
	cfgKeySignificantVariancePct = "significant_variance_pct"
	cfgKeyReasonRequiredPct      = "reason_required_pct"
	cfgKeyTraceMaxDepth          = "trace_max_depth"
	cfgKeyWriteMaxRetries        = "write_max_retries"

	defaultBackend = types.BackendSQLite
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Tracelot CLI configuration

# Backend selection
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Reject equal timestamps for same-type event pairs on a lot
# strict_same_type: false

# Waste variance policy (percentages)
# significant_variance_pct: 20
# reason_required_pct: 30

# Trace walk depth cap
# trace_max_depth: 64
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ledgerConfig builds the ledger Config from config.yaml and the resolved
// data directory.
func ledgerConfig(dataDir string) (types.Config, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return types.Config{}, err
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, err
	}

	cfg := types.Config{
		Backend:                v.GetString(cfgKeyBackend),
		DataDir:                dataDir,
		StrictSameType:         v.GetBool(cfgKeyStrictSameType),
		SignificantVariancePct: v.GetFloat64(cfgKeySignificantVariancePct),
		ReasonRequiredPct:      v.GetFloat64(cfgKeyReasonRequiredPct),
		TraceMaxDepth:          v.GetInt(cfgKeyTraceMaxDepth),
		WriteMaxRetries:        v.GetInt(cfgKeyWriteMaxRetries),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
