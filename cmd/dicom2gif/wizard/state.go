// Package wizard provides an interactive TUI for configuring a conversion.
package wizard

import (
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/types"
	"github.com/mrsinham/dicom2gif/internal/config"
)

// WizardState is the state edited by the wizard screens.
type WizardState = types.WizardState

// NewState returns a state filled with the built-in defaults.
func NewState() *WizardState {
	return FromConfig("", config.Default())
}

// FromConfig builds a wizard state from a loaded configuration.
func FromConfig(input string, cfg *config.Config) *WizardState {
	if cfg == nil {
		cfg = config.Default()
	}
	return &WizardState{
		Input: input,
		Settings: types.Settings{
			Pattern:   cfg.Pattern,
			OutFile:   cfg.OutFile,
			Format:    cfg.Format,
			Duration:  cfg.Duration,
			Windowing: cfg.Windowing,
			Frames:    cfg.Frames,
			Annotate:  cfg.Annotate,
			LogLevel:  cfg.LogLevel,
		},
	}
}

// ToConfig converts the wizard settings back to a configuration.
func ToConfig(s *WizardState) *config.Config {
	return &config.Config{
		Pattern:   s.Settings.Pattern,
		OutFile:   s.Settings.OutFile,
		Format:    s.Settings.Format,
		Duration:  s.Settings.Duration,
		Windowing: s.Settings.Windowing,
		Frames:    s.Settings.Frames,
		Annotate:  s.Settings.Annotate,
		LogLevel:  s.Settings.LogLevel,
	}
}
