package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "laminotes"

// GetDataDir resolves the base directory for all laminotes storage. It checks
// LAMINOTES_DIR first, then the XDG data home, and finally falls back to the
// user's home directory.
func GetDataDir() string {
	if explicit := os.Getenv("LAMINOTES_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetDBPath returns the absolute path to the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "laminotes.db")
}

// GetObjectsDir returns the directory that stores materialized document snapshots.
func GetObjectsDir() string {
	return filepath.Join(GetDataDir(), "objects")
}

// GetConfigPath returns the location of config.yaml.
func GetConfigPath() string {
	return filepath.Join(GetDataDir(), configFileExt)
}
