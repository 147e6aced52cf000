package screens

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/components"
)

// ProgressMsg is sent after each series is processed
type ProgressMsg struct {
	Current int    // Series processed so far
	Total   int    // Series found
	Path    string // Output path of the last series
	Err     error  // Failure of the last series, if any
}

// CompletionMsg is sent when the conversion finished with at least one output
type CompletionMsg struct {
	Written   []string
	Failed    []string // "source: error" lines
	TotalSize int64
	Duration  time.Duration
	Warnings  string // log output captured during the run
}

// ErrorMsg is sent when the conversion produced nothing
type ErrorMsg struct {
	Error error
}

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63"))

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true)

	progressFileStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	progressFailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
)

// ProgressScreen displays conversion progress
type ProgressScreen struct {
	current   int
	total     int
	path      string
	failures  int
	startTime time.Time
	cancelled bool
	width     int
	height    int
}

// NewProgressScreen creates a new progress screen
func NewProgressScreen() *ProgressScreen {
	return &ProgressScreen{startTime: time.Now()}
}

// Init implements tea.Model
func (s *ProgressScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *ProgressScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	case ProgressMsg:
		s.SetProgress(msg)
	}

	return s, nil
}

// SetProgress records a processed series.
func (s *ProgressScreen) SetProgress(msg ProgressMsg) {
	s.current = msg.Current
	s.total = msg.Total
	s.path = msg.Path
	if msg.Err != nil {
		s.failures++
	}
}

// View implements tea.Model
func (s *ProgressScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	var percent float64
	if s.total > 0 {
		percent = float64(s.current) / float64(s.total) * 100
	}

	barWidth := 40
	if s.width > 60 {
		barWidth = min(s.width/2, 60)
	}

	var sb strings.Builder
	sb.WriteString(components.TitleStyle.Render("Converting DICOM series..."))
	sb.WriteString("\n\n")
	sb.WriteString(renderProgressBar(percent, barWidth))
	sb.WriteString(" ")
	sb.WriteString(progressPercentStyle.Render(fmt.Sprintf("%d%%", int(percent))))
	sb.WriteString("\n\n")

	if s.total == 0 {
		sb.WriteString(progressFileStyle.Render("Reading input..."))
	} else {
		sb.WriteString(progressFileStyle.Render(fmt.Sprintf("Series %d/%d", s.current, s.total)))
		if s.path != "" {
			sb.WriteString(": ")
			sb.WriteString(progressFileStyle.Render(truncatePath(s.path, barWidth)))
		}
	}
	sb.WriteString("\n")
	if s.failures > 0 {
		sb.WriteString(progressFailStyle.Render(fmt.Sprintf("%d failed", s.failures)))
		sb.WriteString("\n")
	}
	sb.WriteString(progressFileStyle.Render(fmt.Sprintf("Elapsed: %.1fs", time.Since(s.startTime).Seconds())))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Press Ctrl+C to cancel"))

	return sb.String()
}

func renderProgressBar(percent float64, width int) string {
	filled := min(int(percent/100*float64(width)), width)
	empty := width - filled

	bar := progressBarStyle.Render("[" + strings.Repeat("█", filled))
	bar += progressBarEmptyStyle.Render(strings.Repeat("░", empty) + "]")
	return bar
}

func truncatePath(path string, maxLen int) string {
	if maxLen <= 3 || len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// Cancelled returns true if the user cancelled
func (s *ProgressScreen) Cancelled() bool {
	return s.cancelled
}

// Completion screen styles
var (
	completionSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)

	completionLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	completionValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	completionWarnStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))

	completionButtonFocusedStyle = lipgloss.NewStyle().
					Background(lipgloss.Color("33")).
					Foreground(lipgloss.Color("255")).
					Padding(0, 2).
					Bold(true)
)

// maxListed bounds the number of output paths shown on the completion screen.
const maxListed = 8

// CompletionScreen displays the conversion summary
type CompletionScreen struct {
	msg    CompletionMsg
	done   bool
	width  int
	height int
}

// NewCompletionScreen creates a new completion screen
func NewCompletionScreen(msg CompletionMsg) *CompletionScreen {
	return &CompletionScreen{msg: msg}
}

// Init implements tea.Model
func (s *CompletionScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *CompletionScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "enter", "q":
			s.done = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	return s, nil
}

// View implements tea.Model
func (s *CompletionScreen) View() string {
	var sb strings.Builder

	sb.WriteString(completionSuccessStyle.Render("✓ Conversion complete!"))
	sb.WriteString("\n\n")
	sb.WriteString(components.TitleStyle.Render("Summary:"))
	sb.WriteString("\n")

	stats := []struct {
		label string
		value string
	}{
		{"Files written", fmt.Sprintf("%d", len(s.msg.Written))},
		{"Series failed", fmt.Sprintf("%d", len(s.msg.Failed))},
		{"Total size", formatSize(s.msg.TotalSize)},
		{"Duration", fmt.Sprintf("%.1fs", s.msg.Duration.Seconds())},
	}
	for _, stat := range stats {
		sb.WriteString("  ")
		sb.WriteString(completionLabelStyle.Render(stat.label + ":"))
		sb.WriteString(" ")
		sb.WriteString(completionValueStyle.Render(stat.value))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(components.TitleStyle.Render("Outputs:"))
	sb.WriteString("\n")
	for i, path := range s.msg.Written {
		if i == maxListed {
			sb.WriteString(completionLabelStyle.Render(fmt.Sprintf("  ... and %d more", len(s.msg.Written)-maxListed)))
			sb.WriteString("\n")
			break
		}
		sb.WriteString("  • ")
		sb.WriteString(filepath.Clean(path))
		sb.WriteString("\n")
	}

	for _, f := range s.msg.Failed {
		sb.WriteString(completionWarnStyle.Render("  ✗ " + f))
		sb.WriteString("\n")
	}
	if w := strings.TrimSpace(s.msg.Warnings); w != "" {
		sb.WriteString("\n")
		sb.WriteString(components.TitleStyle.Render("Warnings:"))
		sb.WriteString("\n")
		sb.WriteString(completionWarnStyle.Render(w))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(completionButtonFocusedStyle.Render("Exit"))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Press Enter or q to exit"))

	return sb.String()
}

// Done returns true if the user is finished
func (s *CompletionScreen) Done() bool {
	return s.done
}

// formatSize formats bytes as human-readable size
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ErrorScreen displays an error that stopped the conversion
type ErrorScreen struct {
	err    error
	done   bool
	width  int
	height int
}

var (
	errorTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))
)

// NewErrorScreen creates a new error screen
func NewErrorScreen(err error) *ErrorScreen {
	return &ErrorScreen{err: err}
}

// Init implements tea.Model
func (s *ErrorScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *ErrorScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "enter", "q":
			s.done = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	return s, nil
}

// View implements tea.Model
func (s *ErrorScreen) View() string {
	var sb strings.Builder

	sb.WriteString(errorTitleStyle.Render("✗ Conversion failed"))
	sb.WriteString("\n\n")
	sb.WriteString(components.TitleStyle.Render("Error:"))
	sb.WriteString("\n  ")
	sb.WriteString(errorMessageStyle.Render(s.err.Error()))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Press Enter or q to exit"))

	return sb.String()
}

// Done returns true if the user is finished
func (s *ErrorScreen) Done() bool {
	return s.done
}

// Error returns the error
func (s *ErrorScreen) Error() error {
	return s.err
}
