package config

import (
	"fmt"
	"path/filepath"

	"github.com/karrick/godirwalk"
)

// FindRoot walks upward from startDir until it finds a directory
// containing RepoConfigName, returning that directory. It returns an
// error if / is reached without finding one (spec.md §6's project
// discovery: "walk upward until a project file is found; if / is
// reached without finding one, exit with error").
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		names, err := godirwalk.ReadDirnames(dir, nil)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, name := range names {
			if name == RepoConfigName {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found above %s", RepoConfigName, startDir)
		}
		dir = parent
	}
}
