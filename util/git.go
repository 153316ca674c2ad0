package util

import (
	"os"
	"path/filepath"
)

// FindRepoRoot walks upward from start looking for a .git directory.
// Returns start unchanged if none is found. An empty start means the
// current working directory.
func FindRepoRoot(start string) (string, error) {
	dir := start
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}

	probe := dir
	for {
		if _, err := os.Stat(filepath.Join(probe, ".git")); err == nil {
			return probe, nil
		}

		parent := filepath.Dir(probe)
		if parent == probe {
			// Reached filesystem root without finding .git.
			return dir, nil
		}
		probe = parent
	}
}
