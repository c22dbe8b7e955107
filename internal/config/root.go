package config

import (
	"os"
	"path/filepath"
)

// FindProjectRoot walks up from start looking for the nearest ancestor
// directory that contains a marker subdirectory named .pgspa (created by
// the init command). It returns "" with a nil error if no such ancestor
// exists; the exec command treats that result as pgspa.ErrInvalidConfig.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		info, statErr := os.Stat(filepath.Join(dir, pgspaMarkerName))
		if statErr == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

const pgspaMarkerName = ".pgspa"
