package model

// MaxRecentPanels bounds the recent panel list.
const MaxRecentPanels = 10

// AppConfig holds application-wide preferences.
type AppConfig struct {
	DefaultPreset string         `json:"default_preset" mapstructure:"default_preset"`
	OutputDir     string         `json:"output_dir" mapstructure:"output_dir"`
	LogLevel      string         `json:"log_level" mapstructure:"log_level"` // "debug", "info", "warn", "error"
	WriteSheet    bool           `json:"write_sheet" mapstructure:"write_sheet"`
	Router        RouterSettings `json:"router" mapstructure:"router"`
	RecentPanels  []string       `json:"recent_panels" mapstructure:"recent_panels"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultPreset: "default",
		LogLevel:      "info",
		WriteSheet:    true,
		Router:        DefaultRouterSettings(),
		RecentPanels:  []string{},
	}
}

// AddRecentPanel moves path to the front of the recent list.
func (c *AppConfig) AddRecentPanel(path string) {
	recent := []string{path}
	for _, p := range c.RecentPanels {
		if p != path && len(recent) < MaxRecentPanels {
			recent = append(recent, p)
		}
	}
	c.RecentPanels = recent
}
