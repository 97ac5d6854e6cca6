// Package scaffold writes a starter burrow.yml.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/burrow/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// ConfigFile is the name of the file written by Initialize.
const ConfigFile = "burrow.yml"

// Initialize writes burrow.yml into dir and returns its path.
// If force is true, an existing burrow.yml is replaced.
func Initialize(dir string, force bool) (string, error) {
	path := filepath.Join(dir, ConfigFile)

	if force {
		if err := handleForce(path); err != nil {
			return "", err
		}
	}

	content, err := templatesFS.ReadFile("templates/burrow.yml.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to read burrow.yml template: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Never overwrite here; --force has already removed the old file
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := validateCreatedFile(path); err != nil {
		return "", err
	}

	return path, nil
}

// handleForce removes an existing burrow.yml if --force was specified
func handleForce(path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// validateCreatedFile loads the written file the way `burrow run` will
func validateCreatedFile(path string) error {
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("created %s is not a valid configuration: %w", path, err)
	}
	return nil
}

// PrintSuccess prints the success message with the created file
func PrintSuccess(path string) {
	fmt.Println("\n✅ Successfully initialized burrow!")
	fmt.Println("\nCreated:")
	fmt.Printf("  ✓ %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Tune the goblins in burrow.yml")
	fmt.Println("  2. Run 'burrow run' to start the simulation")
}
