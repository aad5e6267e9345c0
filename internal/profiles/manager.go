// Package profiles gives access to the collections of other local profiles.
//
// Each profile lives in its own directory under a common base:
//
//	<base>/<profile>/collection.db
//	<base>/<profile>/collection.media/
//
// The Manager keeps opened collections cached by name so switching back and
// forth between profiles does not reopen the database each time.
package profiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrCurrentProfile indicates an attempt to open the active profile as a source.
	ErrCurrentProfile = errors.New("cannot open the current profile as another collection")

	// ErrNotOpened indicates no source collection is selected.
	ErrNotOpened = errors.New("no collection opened")

	// ErrInvalidProfileName indicates a name that would resolve outside the base directory.
	ErrInvalidProfileName = errors.New("invalid profile name")
)

// Manager opens and caches collections of profiles other than the current one.
type Manager struct {
	baseDir string
	current string

	mu       sync.Mutex
	opened   map[string]*Collection
	selected string
}

// NewManager creates a manager for profiles under baseDir. current is the
// active profile, which can never be opened as a source.
func NewManager(baseDir, current string) *Manager {
	return &Manager{
		baseDir: baseDir,
		current: current,
		opened:  make(map[string]*Collection),
	}
}

// BaseDir returns the directory holding all profiles.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// ProfileDir returns the directory of a profile.
func (m *Manager) ProfileDir(name string) string {
	return filepath.Join(m.baseDir, name)
}

// Profiles lists profiles that contain a collection, excluding the current one.
func (m *Manager) Profiles() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == m.current {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.baseDir, entry.Name(), collectionFile)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Open selects the named profile's collection, opening it on first use.
func (m *Manager) Open(name string) (*Collection, error) {
	if name == "" {
		return nil, errors.New("profile name is required")
	}
	if !validProfileName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	if name == m.current {
		return nil, ErrCurrentProfile
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.opened[name]
	if !ok {
		var err error
		col, err = OpenCollection(name, m.ProfileDir(name))
		if err != nil {
			return nil, err
		}
		m.opened[name] = col
	}
	m.selected = name
	return col, nil
}

// Current returns the selected collection.
func (m *Manager) Current() (*Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.opened[m.selected]
	if m.selected == "" || !ok {
		return nil, ErrNotOpened
	}
	return col, nil
}

// Close closes the selected collection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.opened[m.selected]
	if !ok {
		return nil
	}
	delete(m.opened, m.selected)
	m.selected = ""
	return col.Close()
}

// CloseAll closes every cached collection. Call it when the active profile
// changes or on shutdown.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, col := range m.opened {
		if err := col.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.opened = make(map[string]*Collection)
	m.selected = ""
	return errors.Join(errs...)
}

// validProfileName accepts only a single path element below the base directory.
func validProfileName(name string) bool {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || name == "." {
		return false
	}
	return filepath.Base(name) == name && !filepath.IsAbs(name)
}
