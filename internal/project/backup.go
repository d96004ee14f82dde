package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/PanelCut/internal/model"
)

const bundleVersion = "1.0.0"

// SettingsBundle moves a user's config and saved presets between machines.
type SettingsBundle struct {
	Version   string              `json:"version"`
	CreatedAt string              `json:"created_at"`
	Config    model.AppConfig     `json:"config"`
	Library   model.PresetLibrary `json:"library"`
}

// ExportSettings writes cfg and lib to a single bundle file.
func ExportSettings(path string, cfg model.AppConfig, lib model.PresetLibrary) error {
	b := SettingsBundle{
		Version:   bundleVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    cfg,
		Library:   lib,
	}
	if err := writeJSON(path, b); err != nil {
		return fmt.Errorf("failed to write settings bundle: %w", err)
	}
	return nil
}

// ReadSettings loads a bundle written by ExportSettings.
func ReadSettings(path string) (SettingsBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SettingsBundle{}, fmt.Errorf("failed to read settings bundle: %w", err)
	}
	b := SettingsBundle{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &b); err != nil {
		return SettingsBundle{}, fmt.Errorf("failed to parse settings bundle: %w", err)
	}
	if b.Version == "" {
		return SettingsBundle{}, errors.New("invalid settings bundle: missing version")
	}
	if b.Config.RecentPanels == nil {
		b.Config.RecentPanels = []string{}
	}
	return b, nil
}

// RestoreSettings applies a bundle: the config is replaced and the bundled
// presets are merged into the library at libraryPath, replacing presets of
// the same name. It returns the number of presets merged.
func RestoreSettings(bundlePath, configPath, libraryPath string) (int, error) {
	b, err := ReadSettings(bundlePath)
	if err != nil {
		return 0, err
	}
	lib, err := LoadLibrary(libraryPath)
	if err != nil {
		return 0, err
	}
	for _, p := range b.Library.Presets {
		lib.Put(p)
	}
	if err := SaveLibrary(libraryPath, lib); err != nil {
		return 0, err
	}
	if err := SaveAppConfig(configPath, b.Config); err != nil {
		return 0, err
	}
	return len(b.Library.Presets), nil
}
