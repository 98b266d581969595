package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configNames are the file names probed in each directory, in order.
var configNames = []string{"ifchanged.yaml", ".ifchanged.yaml"}

// Discover walks up the directory tree from startDir looking for a
// configuration file. It returns the path of the first match; reaching
// the filesystem root without one is ErrNotFound.
func Discover(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root without finding a config file
			return "", fmt.Errorf("%w: searched from %s upward", ErrNotFound, startDir)
		}
		dir = parent
	}
}
