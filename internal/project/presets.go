package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/piwi3910/PanelCut/internal/model"
)

// SavePreset writes a preset to a JSON file.
func SavePreset(path string, p model.Preset) error {
	if err := writeJSON(path, p); err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}
	return nil
}

// LoadPreset reads a preset from a JSON, YAML or TOML file, chosen by the
// extension. Keys missing from the file keep the values of the base preset:
// the built-in preset named by the "base" key, or the default preset.
func LoadPreset(path string) (model.Preset, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return model.Preset{}, fmt.Errorf("failed to read preset %s: %w", path, err)
	}

	p := model.DefaultPreset()
	if base := v.GetString("base"); base != "" {
		found := false
		for _, b := range model.BuiltInPresets {
			if b.Name == base {
				p, found = b, true
				break
			}
		}
		if !found {
			return model.Preset{}, fmt.Errorf("preset %s: unknown base preset %q", path, base)
		}
	}
	id := p.ID
	if err := v.Unmarshal(&p); err != nil {
		return model.Preset{}, fmt.Errorf("failed to parse preset %s: %w", path, err)
	}
	if p.ID == "" {
		p.ID = id
	}
	if err := p.Validate(); err != nil {
		return model.Preset{}, fmt.Errorf("invalid preset %s: %w", path, err)
	}
	return p, nil
}

// SaveLibrary writes the preset library to a JSON file.
func SaveLibrary(path string, lib model.PresetLibrary) error {
	return writeJSON(path, lib)
}

// LoadLibrary reads a preset library from a JSON file.
// If the file does not exist, returns an empty library.
func LoadLibrary(path string) (model.PresetLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewPresetLibrary(), nil
		}
		return model.PresetLibrary{}, err
	}
	var lib model.PresetLibrary
	if err := json.Unmarshal(data, &lib); err != nil {
		return model.PresetLibrary{}, err
	}
	if lib.Presets == nil {
		lib.Presets = []model.Preset{}
	}
	return lib, nil
}

// ResolvePreset loads a preset from a file when name is an existing path,
// and looks it up in the library and the built-in presets otherwise.
func ResolvePreset(name string, lib model.PresetLibrary) (model.Preset, error) {
	if _, err := os.Stat(name); err == nil {
		return LoadPreset(name)
	}
	if p, ok := lib.Resolve(name); ok {
		return p, nil
	}
	return model.Preset{}, fmt.Errorf("unknown preset %q", name)
}
