package wizard

import (
	"errors"
	"io"

	"github.com/mrsinham/dicom2gif/internal/convert"
	"github.com/mrsinham/dicom2gif/internal/logging"
)

// ErrNoInput is returned when the wizard has no DICOM path to convert.
var ErrNoInput = errors.New("input path is required")

// ToOptions converts WizardState to conversion options. Warnings raised
// during the conversion are written to logOut.
func ToOptions(s *WizardState, logOut io.Writer) (convert.Options, error) {
	if s.Input == "" {
		return convert.Options{}, ErrNoInput
	}

	cfg := ToConfig(s)
	if err := cfg.Validate(); err != nil {
		return convert.Options{}, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return convert.Options{}, err
	}
	if logOut == nil {
		logOut = io.Discard
	}
	opts.Logger = logging.NewLogger(cfg.LogLevel, logOut)
	return opts, nil
}
