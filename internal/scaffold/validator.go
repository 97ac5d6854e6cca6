package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckExisting returns an error if dir already holds a burrow.yml
func CheckExisting(dir string) error {
	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("burrow already initialized\n\nFound existing: %s\n\nUse 'burrow init --force' to overwrite it", path)
	}
	return nil
}
