package model

// RouterSettings describe the CNC router that mills panels out of raw
// laminate. All lengths in mm, rates in mm/min.
type RouterSettings struct {
	Dialect      string  `json:"dialect" mapstructure:"dialect"`
	ToolDiameter float64 `json:"tool_diameter" mapstructure:"tool_diameter"`
	DrillMax     float64 `json:"drill_max" mapstructure:"drill_max"` // Larger holes are milled
	CutDepth     float64 `json:"cut_depth" mapstructure:"cut_depth"` // Laminate plus breakthrough
	PassDepth    float64 `json:"pass_depth" mapstructure:"pass_depth"`
	SafeZ        float64 `json:"safe_z" mapstructure:"safe_z"`
	FeedRate     float64 `json:"feed_rate" mapstructure:"feed_rate"`
	PlungeRate   float64 `json:"plunge_rate" mapstructure:"plunge_rate"`
	RapidRate    float64 `json:"rapid_rate" mapstructure:"rapid_rate"` // Only used for time estimates
	SpindleSpeed int     `json:"spindle_speed" mapstructure:"spindle_speed"`
	Climb        bool    `json:"climb" mapstructure:"climb"`
}

func DefaultRouterSettings() RouterSettings {
	return RouterSettings{
		Dialect:      "Grbl",
		ToolDiameter: 2.0,
		DrillMax:     1.2,
		CutDepth:     1.8,
		PassDepth:    0.6,
		SafeZ:        5.0,
		FeedRate:     600,
		PlungeRate:   200,
		RapidRate:    3000,
		SpindleSpeed: 24000,
		Climb:        true,
	}
}

// GCodeDialect holds the controller specific parts of a G-code program.
type GCodeDialect struct {
	Name          string   `json:"name"`
	StartCode     []string `json:"start_code"`
	SpindleStart  string   `json:"spindle_start"` // e.g. "M3 S%d"
	SpindleStop   string   `json:"spindle_stop"`
	RapidMove     string   `json:"rapid_move"`
	FeedMove      string   `json:"feed_move"`
	EndCode       []string `json:"end_code"` // [SafeZ] is replaced by the safe height
	CommentPrefix string   `json:"comment_prefix"`
	CommentSuffix string   `json:"comment_suffix"`
	DecimalPlaces int      `json:"decimal_places"`
}

// GCodeDialects are the built-in controller dialects. The last one is the
// fallback for unknown names.
var GCodeDialects = []GCodeDialect{
	{
		Name:          "Grbl",
		StartCode:     []string{"G90", "G21", "G17"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
	{
		Name:          "Mach3",
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G28 X0 Y0", "M30"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 4,
	},
	{
		Name:          "LinuxCNC",
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 4,
	},
	{
		Name:          "Generic",
		StartCode:     []string{"G90", "G21"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
}

// GetDialect returns a dialect by name, or the generic one.
func GetDialect(name string) GCodeDialect {
	for _, d := range GCodeDialects {
		if d.Name == name {
			return d
		}
	}
	return GCodeDialects[len(GCodeDialects)-1]
}
