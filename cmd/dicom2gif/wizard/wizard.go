package wizard

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/components"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/screens"
	"github.com/mrsinham/dicom2gif/internal/convert"
)

// Phase represents the current phase/screen of the wizard.
type Phase int

const (
	PhaseSettings Phase = iota
	PhaseSummary
	PhaseSaveConfig
	PhaseProgress
	PhaseComplete
	PhaseError
)

// DefaultConfigPath is proposed when saving the settings.
const DefaultConfigPath = "dicom2gif.yaml"

// Wizard is the main orchestrator for the wizard interface.
type Wizard struct {
	state *WizardState
	phase Phase

	settingsScreen   *screens.SettingsScreen
	summaryScreen    *screens.SummaryScreen
	progressScreen   *screens.ProgressScreen
	completionScreen *screens.CompletionScreen
	errorScreen      *screens.ErrorScreen

	saveConfigForm *huh.Form
	configPath     string

	// Conversion events, from the worker goroutine to Update.
	events chan tea.Msg

	width  int
	height int

	cancelled bool
	finished  bool
	err       error
}

// NewWizard creates a new wizard with default or loaded state.
func NewWizard(state *WizardState) *Wizard {
	if state == nil {
		state = NewState()
	}

	w := &Wizard{
		state:      state,
		phase:      PhaseSettings,
		configPath: DefaultConfigPath,
	}
	w.settingsScreen = screens.NewSettingsScreen(w.state)
	return w
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.settingsScreen.Init()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = wsm.Width
		w.height = wsm.Height
	}

	switch w.phase {
	case PhaseSettings:
		return w.updateSettings(msg)
	case PhaseSummary:
		return w.updateSummary(msg)
	case PhaseSaveConfig:
		return w.updateSaveConfig(msg)
	case PhaseProgress:
		return w.updateProgress(msg)
	case PhaseComplete:
		return w.updateComplete(msg)
	case PhaseError:
		return w.updateError(msg)
	}

	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.phase {
	case PhaseSettings:
		return w.settingsScreen.View()
	case PhaseSummary:
		return w.summaryScreen.View()
	case PhaseSaveConfig:
		return w.viewSaveConfig()
	case PhaseProgress:
		return w.progressScreen.View()
	case PhaseComplete:
		return w.completionScreen.View()
	case PhaseError:
		return w.errorScreen.View()
	}

	return ""
}

// Phase returns the current phase.
func (w *Wizard) Phase() Phase {
	return w.phase
}

func (w *Wizard) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.settingsScreen.Update(msg)
	if ss, ok := model.(*screens.SettingsScreen); ok {
		w.settingsScreen = ss
	}

	if w.settingsScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.settingsScreen.Done() {
		return w.transitionToSummary("")
	}

	return w, cmd
}

// transitionToSettings reopens the form with the current values.
func (w *Wizard) transitionToSettings() (tea.Model, tea.Cmd) {
	w.phase = PhaseSettings
	w.settingsScreen = screens.NewSettingsScreen(w.state)
	return w, w.settingsScreen.Init()
}

func (w *Wizard) transitionToSummary(notice string) (tea.Model, tea.Cmd) {
	w.phase = PhaseSummary
	w.summaryScreen = screens.NewSummaryScreen(w.state, notice)
	return w, w.summaryScreen.Init()
}

func (w *Wizard) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.summaryScreen.Update(msg)
	if ss, ok := model.(*screens.SummaryScreen); ok {
		w.summaryScreen = ss
	}

	if w.summaryScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.summaryScreen.Done() {
		switch w.summaryScreen.Action() {
		case screens.SummaryActionBack:
			return w.transitionToSettings()
		case screens.SummaryActionConvert:
			return w.startConversion()
		case screens.SummaryActionSaveConfig:
			return w.transitionToSaveConfig()
		case screens.SummaryActionCancel:
			w.cancelled = true
			return w, tea.Quit
		}
	}

	return w, cmd
}

func (w *Wizard) transitionToSaveConfig() (tea.Model, tea.Cmd) {
	w.phase = PhaseSaveConfig

	w.saveConfigForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("config_path").
				Title("Save configuration to").
				Description("Enter the path for the YAML config file").
				Value(&w.configPath).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false)

	return w, w.saveConfigForm.Init()
}

func (w *Wizard) updateSaveConfig(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			return w.transitionToSummary("")
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		}
	}

	form, cmd := w.saveConfigForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.saveConfigForm = f
	}

	if w.saveConfigForm.State == huh.StateCompleted {
		if err := SaveToYAML(w.state, w.configPath); err != nil {
			return w.fail(err)
		}
		return w.transitionToSummary("✓ Configuration saved to " + w.configPath)
	}

	return w, cmd
}

func (w *Wizard) viewSaveConfig() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("Save Configuration"),
		"",
		w.saveConfigForm.View(),
		"",
		components.HintStyle.Render("Enter: Save | Esc: Back"),
	)
}

// startConversion runs the conversion in a goroutine. Progress and the
// final result come back through w.events.
func (w *Wizard) startConversion() (tea.Model, tea.Cmd) {
	logs := &bytes.Buffer{}
	opts, err := ToOptions(w.state, logs)
	if err != nil {
		return w.fail(err)
	}

	w.phase = PhaseProgress
	w.progressScreen = screens.NewProgressScreen()

	events := make(chan tea.Msg, 1)
	w.events = events
	opts.Progress = func(done, total int, out string, err error) {
		events <- screens.ProgressMsg{Current: done, Total: total, Path: out, Err: err}
	}

	input := w.state.Input
	go func() {
		defer close(events)
		start := time.Now()
		report, err := convert.Run(input, opts)
		events <- conversionResult(report, err, time.Since(start), logs.String())
	}()

	return w, waitForEvent(events)
}

// waitForEvent delivers the next conversion event to Update.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// conversionResult turns a finished run into the message closing the
// progress phase.
func conversionResult(report *convert.Report, err error, elapsed time.Duration, warnings string) tea.Msg {
	if !report.OK() {
		if err == nil {
			err = errors.New("no output written")
		}
		return screens.ErrorMsg{Error: err}
	}

	msg := screens.CompletionMsg{
		Written:  report.Written,
		Duration: elapsed,
		Warnings: warnings,
	}
	for _, f := range report.Failed {
		msg.Failed = append(msg.Failed, fmt.Sprintf("%s: %v", filepath.Base(f.Source), f.Err))
	}
	for _, path := range report.Written {
		if info, err := os.Stat(path); err == nil {
			msg.TotalSize += info.Size()
		}
	}
	return msg
}

func (w *Wizard) updateProgress(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case screens.ProgressMsg:
		w.progressScreen.SetProgress(msg)
		return w, waitForEvent(w.events)

	case screens.CompletionMsg:
		w.phase = PhaseComplete
		w.completionScreen = screens.NewCompletionScreen(msg)
		return w, nil

	case screens.ErrorMsg:
		return w.fail(msg.Error)
	}

	model, cmd := w.progressScreen.Update(msg)
	if ps, ok := model.(*screens.ProgressScreen); ok {
		w.progressScreen = ps
	}

	if w.progressScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	return w, cmd
}

func (w *Wizard) fail(err error) (tea.Model, tea.Cmd) {
	w.phase = PhaseError
	w.err = err
	w.errorScreen = screens.NewErrorScreen(err)
	return w, nil
}

func (w *Wizard) updateComplete(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.completionScreen.Update(msg)
	if cs, ok := model.(*screens.CompletionScreen); ok {
		w.completionScreen = cs
	}

	if w.completionScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

func (w *Wizard) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.errorScreen.Update(msg)
	if es, ok := model.(*screens.ErrorScreen); ok {
		w.errorScreen = es
	}

	if w.errorScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

// Run starts the interactive wizard. If fromConfig is provided, the form is
// pre-filled from that YAML file.
func Run(fromConfig string) error {
	var state *WizardState

	if fromConfig != "" {
		absPath, err := filepath.Abs(fromConfig)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}

		loaded, err := LoadFromYAML(absPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		state = loaded
	}

	wizard := NewWizard(state)
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if w, ok := finalModel.(*Wizard); ok {
		if w.cancelled {
			return nil
		}
		if w.err != nil {
			return w.err
		}
	}

	return nil
}
