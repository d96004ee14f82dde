package model

// PresetLibrary holds the user's saved presets.
type PresetLibrary struct {
	Presets []Preset `json:"presets"`
}

// NewPresetLibrary creates an empty library.
func NewPresetLibrary() PresetLibrary {
	return PresetLibrary{
		Presets: []Preset{},
	}
}

// Put adds a preset, replacing any preset with the same name.
func (l *PresetLibrary) Put(p Preset) {
	p.Touch()
	for i := range l.Presets {
		if l.Presets[i].Name == p.Name {
			l.Presets[i] = p
			return
		}
	}
	l.Presets = append(l.Presets, p)
}

// Remove removes a preset by ID. Returns true if found and removed.
func (l *PresetLibrary) Remove(id string) bool {
	for i, p := range l.Presets {
		if p.ID == id {
			l.Presets = append(l.Presets[:i], l.Presets[i+1:]...)
			return true
		}
	}
	return false
}

// FindByName returns a pointer to the preset with the given name, or nil.
func (l *PresetLibrary) FindByName(name string) *Preset {
	for i := range l.Presets {
		if l.Presets[i].Name == name {
			return &l.Presets[i]
		}
	}
	return nil
}

// Names returns the saved preset names.
func (l *PresetLibrary) Names() []string {
	names := make([]string, len(l.Presets))
	for i, p := range l.Presets {
		names[i] = p.Name
	}
	return names
}

// Resolve looks a preset up in the library first and among the built-in
// presets second.
func (l *PresetLibrary) Resolve(name string) (Preset, bool) {
	if p := l.FindByName(name); p != nil {
		return *p, true
	}
	for _, p := range BuiltInPresets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
