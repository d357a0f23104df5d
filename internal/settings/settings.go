// Package settings persists the user-level settings of the cover letter
// generator in a YAML file and validates changes before they are saved.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

const (
	appDir   = "coverletter"
	fileName = "settings.yaml"
)

// DefaultPath returns the settings file in the user configuration directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// FileStore reads and writes settings as YAML. It implements
// stencil.SettingsProvider.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file path
func (s *FileStore) Path() string {
	return s.path
}

// Dir returns the directory holding the settings file
func (s *FileStore) Dir() string {
	return filepath.Dir(s.path)
}

// Load reads the settings. A missing file yields empty settings.
func (s *FileStore) Load() (stencil.Settings, error) {
	var settings stencil.Settings

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	return settings, nil
}

// Save writes the settings atomically: the YAML is written to a temporary
// file next to the target and renamed over it.
func (s *FileStore) Save(settings stencil.Settings) error {
	data, err := yaml.Marshal(settings.Trimmed())
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir(), "."+fileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary settings file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
