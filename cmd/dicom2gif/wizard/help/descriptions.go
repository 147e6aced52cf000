package help

// HelpText contains information about a field
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts contains help information for all wizard fields
var Texts = map[string]HelpText{
	"input": {
		Title:       "DICOM PATH",
		Description: "A DICOM file or a directory of DICOM files.",
		Details: `A file is converted to a single animation.
A directory is scanned recursively and every series found
is written next to its first file.`,
	},
	"pattern": {
		Title:       "FILE PATTERN",
		Description: "Glob matched against file names when the input is a directory.",
		Details:     "Default: *.dcm. Use * to try every file. DICOMDIR files are always skipped.",
	},
	"format": {
		Title:       "OUTPUT FORMAT",
		Description: "Container for the frames.",
		Details: `GIF  - 256 gray levels, centisecond delays
APNG - lossless, millisecond delays
TIFF - multi-page stack, no timing`,
	},
	"out_file": {
		Title:       "OUTPUT FILE",
		Description: "Where to write the animation for a single-file input.",
		Details: `Leave empty to write next to the input with the format extension.
The extension picks the format. Ignored for directories.`,
	},
	"duration": {
		Title:       "FRAME DURATION",
		Description: "Display time of every frame.",
		Details: `Milliseconds (100) or a Go duration (80ms, 1.5s).
Leave empty to derive it from FrameTime or acquisition timestamps.
Falls back to 100ms.`,
	},
	"windowing": {
		Title:       "WINDOWING",
		Description: "How stored values are mapped to gray levels.",
		Details: `dicom - window center/width from the file, full range if absent
full  - minimum to maximum of the whole series
preset name (brain, lung, bone, mr...) or center,width (40,400)`,
	},
	"frames": {
		Title:       "FRAME RANGE",
		Description: "1-based inclusive range of frames to keep.",
		Details:     "Examples: 5 | 3-10 | -20 (first 20) | 8- (from 8 to the end). Empty keeps all.",
	},
	"annotate": {
		Title:       "FRAME COUNTER",
		Description: "Burn an i/n counter into the top left corner.",
		Details:     "White text with a black outline, scaled with the image width.",
	},
	"log_level": {
		Title:       "LOG LEVEL",
		Description: "Verbosity of warnings shown after the conversion.",
		Details:     "debug | info | warn | error",
	},
	"config_path": {
		Title:       "CONFIG FILE",
		Description: "YAML file to write the current settings to.",
		Details:     "Reuse it with dicom2gif --config FILE or dicom2gif wizard --from FILE.",
	},
}
