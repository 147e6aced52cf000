package image

import (
	"sort"
	"strings"
)

// WindowPreset represents a named window/level preset.
type WindowPreset struct {
	Name   string
	Center float64
	Width  float64
}

// Spec returns the explicit window of the preset.
func (p WindowPreset) Spec() WindowSpec {
	return Explicit(p.Center, p.Width)
}

var presets = []WindowPreset{
	// CT, Hounsfield units.
	{Name: "brain", Center: 40, Width: 80},
	{Name: "subdural", Center: 75, Width: 215},
	{Name: "stroke", Center: 40, Width: 40},
	{Name: "bone", Center: 400, Width: 2000},
	{Name: "lung", Center: -600, Width: 1500},
	{Name: "mediastinum", Center: 40, Width: 400},
	{Name: "abdomen", Center: 40, Width: 350},
	{Name: "liver", Center: 60, Width: 150},
	// MR
	{Name: "mr", Center: 500, Width: 1000},
	{Name: "mr-bright", Center: 300, Width: 600},
	{Name: "mr-contrast", Center: 600, Width: 1200},
}

// Preset looks up a preset by name, case-insensitively.
func Preset(name string) (WindowPreset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return WindowPreset{}, false
}

// Presets returns all presets sorted by name.
func Presets() []WindowPreset {
	out := make([]WindowPreset, len(presets))
	copy(out, presets)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PresetNames returns the preset names sorted alphabetically.
func PresetNames() []string {
	all := Presets()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	return names
}
