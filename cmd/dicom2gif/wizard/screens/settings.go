package screens

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/components"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/types"
	"github.com/mrsinham/dicom2gif/internal/encode"
	"github.com/mrsinham/dicom2gif/internal/image"
	"github.com/mrsinham/dicom2gif/internal/logging"
	"github.com/mrsinham/dicom2gif/internal/util"
)

// SettingsScreen is the form where every conversion setting is edited.
type SettingsScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	state     *types.WizardState
	width     int
	height    int
	done      bool
	cancelled bool
}

// NewSettingsScreen creates the settings form bound to state.
func NewSettingsScreen(state *types.WizardState) *SettingsScreen {
	st := &state.Settings
	if st.Format == "" {
		st.Format = string(encode.GIF)
	}
	if st.Windowing == "" {
		st.Windowing = "dicom"
	}
	if st.LogLevel == "" {
		st.LogLevel = "warn"
	}

	s := &SettingsScreen{
		helpPanel: components.NewHelpPanel(),
		state:     state,
	}

	formatOptions := make([]huh.Option[string], 0, len(encode.AllFormats()))
	for _, f := range encode.AllFormats() {
		formatOptions = append(formatOptions, huh.NewOption(strings.ToUpper(string(f)), string(f)))
	}
	levelOptions := make([]huh.Option[string], 0, len(logging.Levels))
	for _, l := range logging.Levels {
		levelOptions = append(levelOptions, huh.NewOption(l, l))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("input").
				Title("DICOM Path").
				Placeholder("file.dcm or a directory").
				Value(&state.Input).
				Validate(validateInput),

			huh.NewInput().
				Key("pattern").
				Title("File Pattern").
				Value(&st.Pattern).
				Validate(validatePattern),

			huh.NewSelect[string]().
				Key("format").
				Title("Output Format").
				Options(formatOptions...).
				Value(&st.Format),

			huh.NewInput().
				Key("out_file").
				Title("Output File").
				Placeholder("next to the input").
				Value(&st.OutFile).
				Validate(validateOutFile),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("duration").
				Title("Frame Duration").
				Placeholder("from metadata").
				Value(&st.Duration).
				Validate(validateDuration),

			huh.NewInput().
				Key("windowing").
				Title("Windowing").
				Suggestions(WindowingSuggestions()).
				Value(&st.Windowing).
				Validate(validateWindowing),

			huh.NewInput().
				Key("frames").
				Title("Frame Range").
				Placeholder("all frames").
				Value(&st.Frames).
				Validate(validateFrames),

			huh.NewConfirm().
				Key("annotate").
				Title("Burn frame counter").
				Value(&st.Annotate),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(levelOptions...).
				Value(&st.LogLevel),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// WindowingSuggestions lists the keywords accepted by the windowing field.
func WindowingSuggestions() []string {
	return append([]string{"dicom", "full"}, image.PresetNames()...)
}

func validateInput(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("path is required")
	}
	if _, err := os.Stat(s); err != nil {
		return fmt.Errorf("cannot access %s", s)
	}
	return nil
}

func validatePattern(s string) error {
	if s == "" {
		return nil
	}
	_, err := util.ParsePattern(s)
	return err
}

func validateOutFile(s string) error {
	if s == "" {
		return nil
	}
	_, err := encode.FormatFromPath(s)
	return err
}

func validateDuration(s string) error {
	_, err := util.ParseDuration(s)
	return err
}

func validateWindowing(s string) error {
	_, err := util.ParseWindowing(s)
	return err
}

func validateFrames(s string) error {
	_, err := util.ParseFrameRange(s)
	return err
}

// Init implements tea.Model
func (s *SettingsScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SettingsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.helpPanel.SetWidth(msg.Width / 2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *SettingsScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("DICOM2GIF WIZARD - Conversion Settings")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		components.HintStyle.Render("Tab: Next field | Enter: Submit | Esc: Cancel"),
	)
}

// Done returns true if the form was completed
func (s *SettingsScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *SettingsScreen) Cancelled() bool {
	return s.cancelled
}
