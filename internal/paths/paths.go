// Package paths decides where the CLI keeps its configuration and its
// ledger database. Explicit flags beat environment variables, which beat
// platform conventions; on Linux the XDG base directories apply.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "tracelot"

// DefaultDataDirName is the directory created in the working directory
// when no data-dir override is active, keeping a ledger database next to
// the project it describes.
const DefaultDataDirName = ".tracelot-db"

// Environment variable overrides.
const (
	EnvConfigDir = "TRACELOT_CONFIG_DIR"
	EnvDataDir   = "TRACELOT_DATA_DIR"
)

// baseDir resolves a per-user application directory. On Linux the named
// XDG variable wins, falling back to the conventional subdirectory of
// the home directory. Elsewhere os.UserConfigDir decides, which lands in
// ~/Library/Application Support on macOS and %APPDATA% on Windows.
func baseDir(xdgVar string, homeFallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
	if base := os.Getenv(xdgVar); base != "" {
		return filepath.Join(base, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, homeFallback...)
	return filepath.Join(append(parts, appDirName)...), nil
}

// DefaultConfigDir is $XDG_CONFIG_HOME/tracelot on Linux, with
// ~/.config/tracelot as the fallback, and the user config directory on
// other platforms.
func DefaultConfigDir() (string, error) {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir is $XDG_DATA_HOME/tracelot on Linux, with
// ~/.local/share/tracelot as the fallback, and the user config directory
// on other platforms.
func DefaultDataDir() (string, error) {
	return baseDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir picks the configuration directory: flag, then
// TRACELOT_CONFIG_DIR, then the platform default. A relative override
// comes back absolute.
func ResolveConfigDir(flag string) (string, error) {
	for _, dir := range []string{flag, os.Getenv(EnvConfigDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the database directory: flag, then the data_dir
// value read from config.yaml, then TRACELOT_DATA_DIR, then
// DefaultDataDirName under the working directory.
func ResolveDataDir(flag, fromConfig string) (string, error) {
	for _, dir := range []string{flag, fromConfig, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
