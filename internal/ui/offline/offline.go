// Package offline provides the screen shown when the generation service
// cannot be reached at startup.
package offline

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/instadash/internal/ui/styles"
)

// RetryMsg asks the parent to probe the service again.
type RetryMsg struct{}

// DismissMsg asks the parent to continue without a healthy service.
type DismissMsg struct{}

// Model holds the offline view state.
type Model struct {
	endpoint string
	reason   string
	checking bool
	width    int
	height   int
}

// New creates the view for endpoint, explaining the failure with reason.
func New(endpoint, reason string) Model {
	return Model{endpoint: endpoint, reason: reason}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			if m.checking {
				return m, nil
			}
			m.checking = true
			return m, func() tea.Msg { return RetryMsg{} }
		case "c", "enter", "esc":
			return m, func() tea.Msg { return DismissMsg{} }
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

// SetReason records the latest probe failure and re-enables retry.
func (m Model) SetReason(reason string) Model {
	m.reason = reason
	m.checking = false
	return m
}

// Checking reports whether a retry is in progress.
func (m Model) Checking() bool {
	return m.checking
}

// SetSize updates the view dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// View renders the offline screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(unpluggedArt())
	b.WriteString("\n\n")
	b.WriteString(styles.TitleStyle.MarginTop(1).Render("Can't reach the dashboard service"))
	b.WriteString("\n\n")
	b.WriteString(styles.SubtitleStyle.Render("instadash sends your data to " + m.endpoint))
	if m.reason != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.reason))
	}
	b.WriteString("\n\n")
	for _, line := range []string{
		"  1. Start the generation service and press r to retry",
		"  2. Point at another service: INSTADASH_SERVICE_ENDPOINT=http://host:8000/generate-dashboard",
		"  3. Or set service.endpoint in ~/.config/instadash/config.yaml",
	} {
		b.WriteString(styles.SubtitleStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	hint := "r retry · c continue anyway · q quit"
	if m.checking {
		hint = "checking..."
	}
	b.WriteString(styles.HintStyle.Render(hint))

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(b.String())
}

var (
	terminalBox = []string{
		"┌────────┐",
		"│ >_     │",
		"│        │",
		"└────────┘",
	}
	serverBox = []string{
		"┌────────┐",
		"│ ▤ ▤ ▤  │",
		"│ ▤ ▤ ▤  │",
		"└────────┘",
	}
	cable = []string{
		"          ",
		"══╡    ╞══",
		"          ",
		"          ",
	}
)

// unpluggedArt draws a terminal and a server with the cable between them
// pulled apart.
func unpluggedArt() string {
	box := lipgloss.NewStyle().Foreground(styles.BorderFocusColor)
	gap := lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	server := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box.Render(strings.Join(terminalBox, "\n")),
		gap.Render(strings.Join(cable, "\n")),
		server.Render(strings.Join(serverBox, "\n")),
	)
}
