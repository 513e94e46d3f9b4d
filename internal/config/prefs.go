package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preferences are per-user settings that survive restarts.
type Preferences struct {
	Muted bool `yaml:"muted"`
}

// PreferencesPath returns ~/.snowbros/prefs.yaml, or empty if home is unavailable.
func PreferencesPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "prefs.yaml")
}

// LoadPreferences reads preferences from path. A missing file yields defaults.
func LoadPreferences(path string) (Preferences, error) {
	var p Preferences
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read preferences %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	return p, nil
}

// SavePreferences writes preferences to path, creating the directory.
func SavePreferences(path string, p Preferences) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences %s: %w", path, err)
	}
	return nil
}
