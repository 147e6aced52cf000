package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/dicom2gif/cmd/dicom2gif/wizard/help"
)

var (
	helpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	helpDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

const minHelpWidth = 40

// HelpPanel shows the help text of the focused form field.
type HelpPanel struct {
	field string
	width int
}

// NewHelpPanel creates a new help panel
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{width: 64}
}

// SetField selects the field whose help is shown.
func (h *HelpPanel) SetField(field string) {
	h.field = field
}

// Field returns the field currently shown.
func (h *HelpPanel) Field() string {
	return h.field
}

// SetWidth updates the panel width. Narrow terminals keep a minimum width.
func (h *HelpPanel) SetWidth(width int) {
	h.width = max(width, minHelpWidth)
}

// View renders the help panel
func (h *HelpPanel) View() string {
	style := helpPanelStyle.Width(h.width - 4)

	text, ok := help.Texts[h.field]
	if !ok {
		return style.Render(helpDetailStyle.Render("Select a field to see help"))
	}

	lines := []string{
		helpTitleStyle.Render(text.Title),
		helpDescStyle.Render(text.Description),
	}
	for _, line := range strings.Split(text.Details, "\n") {
		lines = append(lines, helpDetailStyle.Render("  "+line))
	}
	return style.Render(strings.Join(lines, "\n"))
}
