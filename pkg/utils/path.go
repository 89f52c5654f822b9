package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// CreateFolder creates every folder in the list if it does not exist yet.
func CreateFolder(folderPath ...string) error {
	for _, folder := range folderPath {
		if folder == "" {
			continue
		}
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", folder, err)
		}
	}
	return nil
}

// EnsureParentDir creates the directory that will hold the given file.
func EnsureParentDir(filePath string) error {
	return CreateFolder(filepath.Dir(filePath))
}
