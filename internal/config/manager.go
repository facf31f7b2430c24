package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Manager manages site settings with thread-safe reads and writes.
type Manager struct {
	mu   sync.RWMutex
	site *Site
	path string
}

// NewManager loads site settings from path, creating the file with defaults
// when it does not exist.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("site config not found, creating from defaults", "path", path)
		if err := m.writeSite(DefaultSite(), true); err != nil {
			return nil, fmt.Errorf("failed to create default site config: %w", err)
		}
	}

	if err := m.load(); err != nil {
		return nil, fmt.Errorf("failed to load site config: %w", err)
	}
	return m, nil
}

// NewStaticManager returns a manager that never touches disk.
func NewStaticManager(site *Site) *Manager {
	if site == nil {
		site = DefaultSite()
	}
	cp := *site
	cp.applyDefaults()
	return &Manager{site: &cp}
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Site {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.site
}

// Update applies fn to a copy of the settings and persists the result.
// If fn or validation fails nothing is saved.
func (m *Manager) Update(fn func(*Site) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := *m.site
	if err := fn(&updated); err != nil {
		return err
	}
	updated.applyDefaults()
	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now().Unix()

	if m.path != "" {
		if err := m.writeSite(&updated, false); err != nil {
			return fmt.Errorf("failed to write site config: %w", err)
		}
	}
	m.site = &updated
	return nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read site config: %w", err)
	}
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return fmt.Errorf("failed to parse site config: %w", err)
	}
	site.applyDefaults()
	if err := site.Validate(); err != nil {
		return fmt.Errorf("invalid site config: %w", err)
	}
	m.site = &site
	return nil
}

// writeSite writes atomically using temp file + rename.
func (m *Manager) writeSite(site *Site, withHeader bool) error {
	data, err := yaml.Marshal(site)
	if err != nil {
		return fmt.Errorf("failed to marshal site config: %w", err)
	}
	if withHeader {
		header := "# InQuill site settings\n# Created on first run. Edit to tune pagination, uploads and newsletter snapshots.\n\n"
		data = append([]byte(header), data...)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tempPath := m.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename config file: %w", err)
	}
	return nil
}
