package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tempSuffix = ".tmp"

// Manager writes files below a base directory atomically and remembers what
// is already on disk so re-runs skip existing media
type Manager struct {
	baseDir string
	saved   map[string]bool
	mu      sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		baseDir: baseDir,
		saved:   make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records every finished file below the base directory
func (m *Manager) scanExistingFiles() error {
	return filepath.WalkDir(m.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), tempSuffix) {
			return nil
		}
		rel, err := filepath.Rel(m.baseDir, path)
		if err != nil {
			return err
		}
		m.saved[filepath.ToSlash(rel)] = true
		return nil
	})
}

// Exists reports whether name, relative to the base directory, is already stored
func (m *Manager) Exists(name string) bool {
	key := filepath.ToSlash(filepath.Clean(name))

	m.mu.RLock()
	known := m.saved[key]
	m.mu.RUnlock()
	if known {
		return true
	}

	// Files may have been written by another process since the scan
	if _, err := os.Stat(m.Path(name)); err == nil {
		m.mu.Lock()
		m.saved[key] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// Save writes r to name through a temporary file and an atomic rename
func (m *Manager) Save(r io.Reader, name string) (int64, error) {
	filename := m.Path(name)
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := filename + tempSuffix
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[filepath.ToSlash(filepath.Clean(name))] = true
	m.mu.Unlock()

	return n, nil
}

// Path returns the absolute location of name
func (m *Manager) Path(name string) string {
	return filepath.Join(m.baseDir, filepath.FromSlash(name))
}

// BaseDir returns the base directory path
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SavedCount returns the number of files known to be stored
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
