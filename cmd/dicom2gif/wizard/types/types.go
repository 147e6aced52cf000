// Package types holds the wizard state shared by the wizard and its screens.
package types

// WizardState holds the complete state for the wizard interface.
type WizardState struct {
	// Input is the DICOM file or directory to convert.
	Input    string
	Settings Settings
}

// Settings mirrors the conversion flags as the user types them.
type Settings struct {
	Pattern   string
	OutFile   string
	Format    string
	Duration  string
	Windowing string
	Frames    string
	Annotate  bool
	LogLevel  string
}
