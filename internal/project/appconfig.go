package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/piwi3910/PanelCut/internal/model"
)

// EnvPrefix prefixes environment variables that override config keys, for
// example PANELCUT_LOG_LEVEL or PANELCUT_ROUTER_TOOL_DIAMETER.
const EnvPrefix = "PANELCUT"

var envKeys = []string{
	"default_preset",
	"output_dir",
	"log_level",
	"write_sheet",
	"router.dialect",
	"router.tool_diameter",
	"router.feed_rate",
}

// DefaultConfigDir is ~/.panelcut, or ./.panelcut without a home directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".panelcut")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func DefaultLibraryPath() string {
	return filepath.Join(DefaultConfigDir(), "presets.json")
}

// SaveAppConfig writes cfg as JSON, creating parent directories.
func SaveAppConfig(path string, cfg model.AppConfig) error {
	return writeJSON(path, cfg)
}

// LoadAppConfig reads the config at path (JSON, YAML or TOML by extension)
// over the defaults, then applies PANELCUT_* environment overrides. A
// missing file is not an error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return model.AppConfig{}, err
		}
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return model.AppConfig{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return model.AppConfig{}, err
	}

	cfg := model.DefaultAppConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.RecentPanels == nil {
		cfg.RecentPanels = []string{}
	}
	return cfg, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
