package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jarvis/internal/shared"
)

// FileManager creates files in one directory and deletes them from a set of search roots.
//
// Every result is a sentence for the user; failures are reported, not returned.
type FileManager struct {
	dir         string
	searchPaths []string
	overwrite   bool
	logger      *log.Logger
}

// NewFileManager builds a [FileManager] from the resolved config locations.
func NewFileManager(cfg *shared.Config, logger *log.Logger) *FileManager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &FileManager{
		dir:         cfg.FilesDir(),
		searchPaths: cfg.FileSearchPaths(),
		overwrite:   cfg.Files.Overwrite,
		logger:      shared.WithLogger(logger, "component", "files"),
	}
}

func validFilename(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty filename", shared.ErrInvalidInput)
	case strings.ContainsAny(name, `/\`), name == ".", name == "..":
		return fmt.Errorf("%w: filename must not contain a path", shared.ErrInvalidInput)
	}
	return nil
}

// Create writes content to name inside the files directory.
func (m *FileManager) Create(name, content string) string {
	if err := validFilename(name); err != nil {
		return fmt.Sprintf("⚠️ Error creating file '%s': %v", name, err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Sprintf("⚠️ Error creating file '%s': %v", name, err)
	}

	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err == nil && !m.overwrite {
		m.logger.Info("refusing to overwrite", "path", path)
		return fmt.Sprintf("❌ File '%s' was NOT overwritten.", name)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		m.logger.Error("failed to write file", "path", path, "error", err)
		return fmt.Sprintf("⚠️ Error creating file '%s': %v", name, err)
	}

	m.logger.Info("created file", "path", path, "bytes", len(content))
	return fmt.Sprintf("✅ File '%s' created successfully at: %s", name, path)
}

// Find returns the first file called name under the search roots, in order.
func (m *FileManager) Find(name string) (string, bool) {
	var found string
	for _, root := range m.searchPaths {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() && d.Name() == name {
				found = path
				return fs.SkipAll
			}
			return nil
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// Delete removes the first file called name found under the search roots.
func (m *FileManager) Delete(name string) string {
	if err := validFilename(name); err != nil {
		return fmt.Sprintf("❌ File '%s' not found.", name)
	}

	path, ok := m.Find(name)
	if !ok {
		return fmt.Sprintf("❌ File '%s' not found.", name)
	}

	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Error("failed to delete file", "path", path, "error", err)
		}
		return fmt.Sprintf("⚠️ Error deleting '%s': %v", name, err)
	}

	m.logger.Info("deleted file", "path", path)
	return fmt.Sprintf("✅ File '%s' deleted successfully from: %s", name, path)
}
