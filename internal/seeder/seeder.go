package seeder

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

//go:embed tools.yaml
var defaultSchemas []byte

// SeedDefaultSchemas writes the built-in tool set to path when no schema
// file exists yet, so a fresh deployment starts with a working catalog.
// An existing file is never overwritten.
func SeedDefaultSchemas(path string) error {
	if _, err := os.Stat(path); err == nil {
		log.Printf("[Seeder] Schema file already exists, skipping: %s", path)
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create schema directory: %w", err)
		}
	}
	if err := os.WriteFile(path, defaultSchemas, 0o644); err != nil {
		return fmt.Errorf("failed to write default schemas: %w", err)
	}

	log.Printf("[Seeder] Default tool schemas written to %s", path)
	return nil
}
