package dicom

import "errors"

var (
	// ErrUnreadableFile is returned when a path is not a regular file holding a DICOM stream.
	ErrUnreadableFile = errors.New("unreadable DICOM file")

	// ErrMissingPixelData is returned when a file carries no image payload.
	ErrMissingPixelData = errors.New("missing pixel data")

	// ErrUnsupportedPixels is returned for color or otherwise non-grayscale pixel data.
	ErrUnsupportedPixels = errors.New("unsupported pixel data")

	// ErrInconsistentDimensions is returned when frames of one series differ in size.
	ErrInconsistentDimensions = errors.New("inconsistent frame dimensions")

	// ErrInvalidFrameRange is returned when a frame range does not fit a series.
	ErrInvalidFrameRange = errors.New("invalid frame range")

	// ErrInvalidDuration is returned for non-positive frame durations.
	ErrInvalidDuration = errors.New("invalid frame duration")

	// ErrNotDirectory is returned when a scan root is missing or not a directory.
	ErrNotDirectory = errors.New("not a directory")
)
