package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/components"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/types"
)

// SummaryAction represents the action selected on the summary screen
type SummaryAction int

const (
	// SummaryActionBack returns to the settings form
	SummaryActionBack SummaryAction = iota
	// SummaryActionConvert starts the conversion
	SummaryActionConvert
	// SummaryActionSaveConfig saves the settings to a YAML file
	SummaryActionSaveConfig
	// SummaryActionCancel exits the wizard
	SummaryActionCancel
)

const (
	actionBack       = "back"
	actionConvert    = "convert"
	actionSaveConfig = "save_config"
	actionCancel     = "cancel"
)

var (
	summaryPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2)

	summaryTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true).
				MarginBottom(1)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	summaryNoticeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))

	cliCommandStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// SummaryScreen displays the settings before converting
type SummaryScreen struct {
	form      *huh.Form
	state     *types.WizardState
	notice    string
	action    string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewSummaryScreen creates a new summary screen. A non-empty notice is shown
// above the actions, e.g. after saving the configuration.
func NewSummaryScreen(state *types.WizardState, notice string) *SummaryScreen {
	s := &SummaryScreen{
		state:  state,
		notice: notice,
		action: actionConvert,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Select an action").
				Options(
					huh.NewOption("Convert", actionConvert),
					huh.NewOption("Save configuration to YAML", actionSaveConfig),
					huh.NewOption("Back to edit", actionBack),
					huh.NewOption("Cancel and exit", actionCancel),
				).
				Value(&s.action),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *SummaryScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SummaryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.action = actionBack
			s.done = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *SummaryScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("SUMMARY - Review Settings")
	panel := summaryPanelStyle.Width(60).Render(s.buildParameterSummary())

	parts := []string{
		title,
		"",
		panel,
		"",
		summaryTitleStyle.Render("Equivalent CLI Command"),
		cliCommandStyle.Render(CLICommand(s.state)),
		"",
	}
	if s.notice != "" {
		parts = append(parts, summaryNoticeStyle.Render(s.notice), "")
	}
	parts = append(parts,
		s.form.View(),
		"",
		components.HintStyle.Render("Enter: Select action | Esc: Back"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s *SummaryScreen) buildParameterSummary() string {
	st := s.state.Settings

	output := st.OutFile
	if output == "" {
		output = "next to input (." + st.Format + ")"
	}
	duration := st.Duration
	if duration == "" {
		duration = "from metadata"
	}
	frames := st.Frames
	if frames == "" {
		frames = "all"
	}

	params := []struct {
		label string
		value string
	}{
		{"Input", s.state.Input},
		{"Pattern", st.Pattern},
		{"Format", strings.ToUpper(st.Format)},
		{"Output", output},
		{"Frame duration", duration},
		{"Windowing", st.Windowing},
		{"Frames", frames},
		{"Frame counter", fmt.Sprintf("%t", st.Annotate)},
		{"Log level", st.LogLevel},
	}

	var sb strings.Builder
	sb.WriteString(summaryTitleStyle.Render("Conversion Settings"))
	sb.WriteString("\n")
	for _, p := range params {
		sb.WriteString(summaryLabelStyle.Render(p.label + ": "))
		sb.WriteString(summaryValueStyle.Render(p.value))
		sb.WriteString("\n")
	}
	return sb.String()
}

// CLICommand returns the command line running the same conversion.
// Settings left at their default are omitted.
func CLICommand(state *types.WizardState) string {
	st := state.Settings
	parts := []string{"dicom2gif"}

	if st.Pattern != "" && st.Pattern != "*.dcm" {
		parts = append(parts, "--pattern "+quote(st.Pattern))
	}
	if st.OutFile != "" {
		parts = append(parts, "--out-file "+quote(st.OutFile))
	} else if st.Format != "" && st.Format != "gif" {
		parts = append(parts, "--format "+st.Format)
	}
	if st.Duration != "" {
		parts = append(parts, "--duration "+st.Duration)
	}
	if st.Windowing != "" && st.Windowing != "dicom" {
		parts = append(parts, "--windowing "+quote(st.Windowing))
	}
	if st.Frames != "" {
		parts = append(parts, "--frames "+st.Frames)
	}
	if st.Annotate {
		parts = append(parts, "--annotate")
	}
	if st.LogLevel != "" && st.LogLevel != "warn" {
		parts = append(parts, "--log-level "+st.LogLevel)
	}
	parts = append(parts, quote(state.Input))

	return strings.Join(parts, " ")
}

// quote wraps values the shell would split or expand.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " *?[]'\"$") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// Done returns true if the form was completed
func (s *SummaryScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *SummaryScreen) Cancelled() bool {
	return s.cancelled
}

// Action returns the selected action
func (s *SummaryScreen) Action() SummaryAction {
	switch s.action {
	case actionBack:
		return SummaryActionBack
	case actionSaveConfig:
		return SummaryActionSaveConfig
	case actionCancel:
		return SummaryActionCancel
	default:
		return SummaryActionConvert
	}
}
