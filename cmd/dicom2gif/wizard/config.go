package wizard

import (
	"fmt"

	"github.com/mrsinham/dicom2gif/internal/config"
)

// SaveToYAML writes the wizard settings in the format read by --config.
// The input path is not part of the file.
func SaveToYAML(s *WizardState, path string) error {
	cfg := ToConfig(s)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return config.Save(cfg, path)
}

// LoadFromYAML reads a configuration file into a wizard state.
func LoadFromYAML(path string) (*WizardState, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return FromConfig("", cfg), nil
}
