package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserConfigFile is the per-user preferences file under ~/.colonysim
const UserConfigFile = "preferences.yaml"

// UserConfig holds the CLI's remembered choices
type UserConfig struct {
	// scenario used by `colonysim run` when --scenario is omitted
	DefaultScenario string `yaml:"default_scenario,omitempty"`

	// settlement the report focuses on when --settlement is omitted
	DefaultSettlement string `yaml:"default_settlement,omitempty"`
}

// UserConfigHandler reads and writes the preferences file
type UserConfigHandler struct {
	path string
}

// NewUserConfigHandler stores preferences under ~/.colonysim
func NewUserConfigHandler() (*UserConfigHandler, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewUserConfigHandlerAt(filepath.Join(home, ".colonysim"))
}

// NewUserConfigHandlerAt stores preferences under dir, creating it if needed
func NewUserConfigHandlerAt(dir string) (*UserConfigHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &UserConfigHandler{path: filepath.Join(dir, UserConfigFile)}, nil
}

// Load returns the stored preferences. A missing file is an empty UserConfig.
func (h *UserConfigHandler) Load() (*UserConfig, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var uc UserConfig
	if err := yaml.Unmarshal(data, &uc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", h.path, err)
	}
	return &uc, nil
}

// Save replaces the preferences file through a temp file and rename so a
// crash never leaves it half written
func (h *UserConfigHandler) Save(uc *UserConfig) error {
	data, err := yaml.Marshal(uc)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".preferences-*")
	if err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		return fmt.Errorf("failed to replace user config: %w", err)
	}
	return nil
}

// update loads, mutates and saves in one step
func (h *UserConfigHandler) update(mutate func(*UserConfig)) error {
	uc, err := h.Load()
	if err != nil {
		return err
	}
	mutate(uc)
	return h.Save(uc)
}

func (h *UserConfigHandler) SetDefaultScenario(path string) error {
	return h.update(func(uc *UserConfig) { uc.DefaultScenario = path })
}

func (h *UserConfigHandler) SetDefaultSettlement(id string) error {
	return h.update(func(uc *UserConfig) { uc.DefaultSettlement = id })
}

// Clear forgets every stored preference
func (h *UserConfigHandler) Clear() error {
	return h.Save(&UserConfig{})
}

// GetConfigPath returns the preferences file location
func (h *UserConfigHandler) GetConfigPath() string {
	return h.path
}
